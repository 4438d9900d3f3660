// Package link carries companion traffic for the band over Redis.
//
// # Overview
//
// A small Redis schema stands in for the radio link between the band and
// its companion app. The companion holds a session key with a TTL while it
// is "in range"; commands and notifications travel over Pub/Sub channels;
// the band's advertising beacons are published as presence events.
//
// # Connection Model
//
// The band never dials anyone. It answers three questions:
//   - Connected: does a companion currently hold the session key?
//   - Notify: push one payload to whoever is listening
//   - Announce: publish an advertising beacon so scanners can find the band
//
// The companion establishes the session, sends commands, and subscribes to
// notifications. Letting the session TTL lapse is the disconnect signal;
// there is no teardown handshake, exactly like a central drifting out of
// range.
//
// # Redis Schema
//
// All keys and channels are namespaced by device name so several bands can
// share one Redis server.
//
//	Session key:   caremini:{device_name}:session
//	Commands:      caremini:{device_name}:commands
//	Notifications: caremini:{device_name}:notifications
//	Presence:      caremini:{device_name}:presence_events
//
// Delivery is at-most-once. A notification published while nobody is
// subscribed is gone, which is the honest behavior for a radio.
package link
