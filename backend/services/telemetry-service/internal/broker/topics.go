package broker

// Topic strings are part of the wire contract with the onboard devices and
// the mobile app; do not change them without coordinating a firmware release.
const (
	// Inbound.
	TopicShuttleGPS      = "sut/bus/gps"
	TopicShuttlePosition = "sut/bus/position"
	TopicDoorCount       = "bus/door/count"

	// Outbound.
	TopicLiveLocation = "sut/app/bus/location"
	TopicRing         = "sut/bus/ring"
)
