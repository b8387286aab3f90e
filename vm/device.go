package vm

// Device is the host I/O contract. The core never blocks in a device:
// Poll must return promptly, reporting whether the device produced any
// activity since the last poll. The wait native cycles over every
// registered device, yielding to the trampoline between cycles so halts
// and recycles stay serviceable.
type Device interface {
	Name() string
	Poll() (activity bool, err error)
}

// RegisterDevice adds a device to the runtime's poll set.
func (rt *Runtime) RegisterDevice(dev Device) {
	rt.devices = append(rt.devices, dev)
	log.Debugf("device registered: %s", dev.Name())
}

// Devices returns the registered devices in registration order.
func (rt *Runtime) Devices() []Device {
	return rt.devices
}

// TimerDevice reports activity once a fixed number of polls have happened.
// Useful as a deterministic stand-in for real timers in scripts and tests.
type TimerDevice struct {
	Ticks int
	count int
}

func (d *TimerDevice) Name() string { return "timer" }

func (d *TimerDevice) Poll() (bool, error) {
	d.count++
	return d.count >= d.Ticks, nil
}
