package gpio

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/kevinboone/pi-servo/internal/ui"
	"github.com/kevinboone/pi-servo/internal/util"
)

const sysfsGpioPath = "/sys/class/gpio"

// attributeTimeout bounds how long Claim waits for the kernel (and udev) to
// create the per-pin attribute files after an export.
const attributeTimeout = 1 * time.Second

// SysfsPin drives a GPIO line through the legacy sysfs interface: the pin
// number is written to the export control file, the direction attribute is set
// to "out" and the value attribute is kept open for single-character writes.
type SysfsPin struct {
	Pin int
	// Root overrides the sysfs gpio class directory, used in tests.
	Root string

	value *os.File
}

func (p *SysfsPin) Label() string {
	return fmt.Sprintf("gpio%d", p.Pin)
}

func (p *SysfsPin) Claim() error {
	root := p.root()
	pin := strconv.Itoa(p.Pin)

	err := util.WriteStringToFile(pin, root+"/export")
	if err != nil && !errors.Is(err, syscall.EBUSY) {
		// EBUSY means the pin is already exported, which is fine as long as
		// the attribute files below can be used.
		return &ClaimError{Pin: p.Label(), Cause: err}
	}

	directionPath := fmt.Sprintf("%s/gpio%d/direction", root, p.Pin)
	if err = util.WaitForFile(directionPath, attributeTimeout); err != nil {
		p.unexport()
		return &ClaimError{Pin: p.Label(), Cause: err}
	}
	if err = util.WriteStringToFile("out", directionPath); err != nil {
		p.unexport()
		return &ClaimError{Pin: p.Label(), Cause: err}
	}

	valuePath := fmt.Sprintf("%s/gpio%d/value", root, p.Pin)
	value, err := os.OpenFile(valuePath, os.O_WRONLY, 0)
	if err != nil {
		p.unexport()
		return &ClaimError{Pin: p.Label(), Cause: err}
	}

	// The value attribute reports the current level as an integer; reading it
	// back verifies the claimed pin is actually usable.
	if _, err = util.ReadIntFromFile(valuePath); err != nil {
		_ = value.Close()
		p.unexport()
		return &ClaimError{Pin: p.Label(), Cause: err}
	}
	p.value = value

	return nil
}

func (p *SysfsPin) Write(level Level) error {
	if p.value == nil {
		return fmt.Errorf("%s is not claimed", p.Label())
	}

	// A single ASCII character sets the line level.
	b := []byte{'0'}
	if level == High {
		b[0] = '1'
	}
	_, err := p.value.Write(b)
	return err
}

func (p *SysfsPin) Release() error {
	if p.value == nil {
		return nil
	}

	p.unexport()

	err := p.value.Close()
	p.value = nil
	return err
}

func (p *SysfsPin) unexport() {
	pin := strconv.Itoa(p.Pin)
	if err := util.WriteStringToFile(pin, p.root()+"/unexport"); err != nil {
		ui.Warning("Unable to unexport %s: %v", p.Label(), err)
	}
}

func (p *SysfsPin) root() string {
	if len(p.Root) > 0 {
		return p.Root
	}
	return sysfsGpioPath
}
