package system

import "log"

// DeviceType classifies an audio endpoint.
type DeviceType int

const (
	DeviceUnknown DeviceType = iota
	DeviceSpeaker
	DeviceWiredHeadset
	DeviceWiredHeadphones
	DeviceBluetoothA2DP
	DeviceHDMI
)

// AudioDevice is one enumerated endpoint.
type AudioDevice struct {
	Name string
	Type DeviceType
}

// DeviceEnumerator lists the host's audio endpoints. Implementations may
// legitimately return an empty list.
type DeviceEnumerator interface {
	Devices() ([]AudioDevice, error)
}

// StaticEnumerator returns a fixed device list; the demo and tests use it.
type StaticEnumerator []AudioDevice

func (e StaticEnumerator) Devices() ([]AudioDevice, error) {
	return []AudioDevice(e), nil
}

// HeadsetConnected probes enum for a wired headset or headphones. A nil
// enumerator, an enumeration failure, or an empty device list all report
// false: absence of the capability is a negative result, never an error.
func HeadsetConnected(enum DeviceEnumerator) bool {
	if enum == nil {
		return false
	}
	devices, err := enum.Devices()
	if err != nil {
		log.Printf("system: audio enumeration failed: %v", err)
		return false
	}
	for _, d := range devices {
		if d.Type == DeviceWiredHeadset || d.Type == DeviceWiredHeadphones {
			return true
		}
	}
	return false
}
