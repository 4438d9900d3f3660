package link

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by device name to
// enable multiple bands to safely coexist on a single Redis server.
//
// Key pattern: caremini:{device_name}:{entity}
// Channel pattern: caremini:{device_name}:{event_type}

// SessionKey returns the Redis key whose existence marks a live companion
// session. The companion sets it with a TTL and refreshes it while
// connected; letting it expire is the disconnect signal.
// Pattern: caremini:{device_name}:session
func SessionKey(deviceName string) string {
	return fmt.Sprintf("caremini:%s:session", deviceName)
}

// CommandsChannel returns the Pub/Sub channel carrying companion commands
// to the band.
// Pattern: caremini:{device_name}:commands
func CommandsChannel(deviceName string) string {
	return fmt.Sprintf("caremini:%s:commands", deviceName)
}

// NotificationsChannel returns the Pub/Sub channel carrying band
// notifications (reminder lists, alert texts) to the companion.
// Pattern: caremini:{device_name}:notifications
func NotificationsChannel(deviceName string) string {
	return fmt.Sprintf("caremini:%s:notifications", deviceName)
}

// PresenceChannel returns the Pub/Sub channel carrying the band's
// advertising beacons.
// Pattern: caremini:{device_name}:presence_events
func PresenceChannel(deviceName string) string {
	return fmt.Sprintf("caremini:%s:presence_events", deviceName)
}
