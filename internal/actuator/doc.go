// Package actuator provides the band's output pins: the vibration motor
// and the sounder. On real hardware these would be GPIO lines; here they
// are logged transitions, an audible tone, or recorded state for tests.
package actuator
