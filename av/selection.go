package av

import (
	"fmt"

	"github.com/opd-ai/toxvideo/interfaces"
	"github.com/sirupsen/logrus"
)

func checkKind(kind interfaces.DeviceKind) error {
	if kind != interfaces.DeviceInput && kind != interfaces.DeviceOutput {
		return fmt.Errorf("%w: device kind %d", ErrInvalidArgument, int(kind))
	}
	return nil
}

// ListDevices returns the enumerated device names of kind, index ordered.
func (c *Controller) ListDevices(kind interfaces.DeviceKind) ([]string, error) {
	if err := checkKind(kind); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrControllerClosed
	}
	return c.devices.Names(kind), nil
}

// ValidateSelection fails with ErrInvalidSelection when index does not name
// an enumerated device of kind.
func (c *Controller) ValidateSelection(kind interfaces.DeviceKind, index int) error {
	if err := checkKind(kind); err != nil {
		return err
	}
	count := c.devices.Count(kind)
	if index < 0 || index >= count {
		return fmt.Errorf("%w: %s device %d not in [0, %d)", ErrInvalidSelection, kind, index, count)
	}
	return nil
}

// SetPrimaryDevice makes the device at index the one future calls open.
func (c *Controller) SetPrimaryDevice(kind interfaces.DeviceKind, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}
	if err := c.ValidateSelection(kind, index); err != nil {
		return err
	}
	if err := c.devices.SetPrimary(kind, index); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSelection, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "SetPrimaryDevice",
		"kind":     kind.String(),
		"index":    index,
	}).Info("Primary video device changed")
	return nil
}

// SelectDevice switches the capture device of a transmitting call on peerID
// to the device at index. The old device is closed, the new one opened and
// the capture callback attached again, in that order. A failing step stops
// the sequence and leaves the binding as the last successful step left it;
// nothing is rolled back. An invalid index changes nothing.
//
// Render devices are not switched during a call; selecting an output only
// validates the index.
func (c *Controller) SelectDevice(peerID uint32, kind interfaces.DeviceKind, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrControllerClosed
	}
	call, err := c.registry.Get(peerID)
	if err != nil {
		return err
	}
	if err := c.ValidateSelection(kind, index); err != nil {
		return err
	}

	if kind == interfaces.DeviceOutput || !call.TransmissionActive {
		logrus.WithFields(logrus.Fields{
			"function": "SelectDevice",
			"peer_id":  peerID,
			"kind":     kind.String(),
			"index":    index,
		}).Debug("No device to switch")
		return nil
	}

	if slot, ok := call.Input.Get(); ok {
		if err := c.devices.Close(interfaces.DeviceInput, slot); err != nil {
			err = fmt.Errorf("%w: input: %v", ErrDeviceCloseFailed, err)
			c.metrics.deviceFailed(interfaces.DeviceInput, "close")
			c.logFailure("SelectDevice", peerID, err).Error("Failed to close capture device")
			return err
		}
		call.Input = SlotBinding{}
	}

	slot, err := c.devices.Open(interfaces.DeviceInput, index)
	if err != nil {
		err = fmt.Errorf("%w: input %d: %v", ErrDeviceOpenFailed, index, err)
		c.metrics.deviceFailed(interfaces.DeviceInput, "open")
		c.logFailure("SelectDevice", peerID, err).Error("Failed to open capture device")
		return err
	}
	call.Input = Bind(slot)

	if err := c.devices.RegisterFrameCallback(peerID, slot, c.onCapture); err != nil {
		c.metrics.deviceFailed(interfaces.DeviceInput, "register")
		c.logFailure("SelectDevice", peerID, err).Error("Failed to register capture callback")
		return fmt.Errorf("register capture callback: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "SelectDevice",
		"peer_id":  peerID,
		"index":    index,
		"slot":     slot,
	}).Info("Capture device switched")
	return nil
}
