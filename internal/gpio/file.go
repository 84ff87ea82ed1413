package gpio

import (
	"os/user"
	"path/filepath"
	"strings"

	"github.com/kevinboone/pi-servo/internal/util"
)

// FilePin writes levels to a plain file instead of GPIO hardware. Useful for
// tests, simulations and anything else that is file-shaped.
type FilePin struct {
	Path string

	path    string
	claimed bool
}

func (p *FilePin) Label() string {
	return p.Path
}

func (p *FilePin) Claim() error {
	filePath := p.Path
	// resolve home dir path
	if strings.HasPrefix(filePath, "~") {
		currentUser, err := user.Current()
		if err != nil {
			return &ClaimError{Pin: p.Label(), Cause: err}
		}

		filePath = filepath.Join(currentUser.HomeDir, filePath[1:])
	}

	if err := util.WriteStringToFile("0", filePath); err != nil {
		return &ClaimError{Pin: p.Label(), Cause: err}
	}

	p.path = filePath
	p.claimed = true
	return nil
}

func (p *FilePin) Write(level Level) error {
	text := "0"
	if level == High {
		text = "1"
	}
	return util.WriteStringToFile(text, p.path)
}

func (p *FilePin) Release() error {
	if !p.claimed {
		return nil
	}
	p.claimed = false
	return util.WriteStringToFile("0", p.path)
}
