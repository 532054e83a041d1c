package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"
)

// ErrAlreadyRunning is returned when another daemon process is found.
var ErrAlreadyRunning = errors.New("another alarm clock daemon is already running")

// processLister lists the processes of the host.
type processLister func() ([]ps.Process, error)

// ensureSingleInstance fails when a process with the same executable name as
// this one is running, since two daemons would ring every alarm twice.
func ensureSingleInstance(list processLister) error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	pids, err := otherInstances(list, filepath.Base(executable), os.Getpid())
	if err != nil {
		return err
	}

	if len(pids) > 0 {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pids[0])
	}

	return nil
}

// otherInstances returns the pids of processes named like name, excluding self.
func otherInstances(list processLister, name string, self int) ([]int, error) {
	processList, err := list()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	var pids []int

	for _, process := range processList {
		if process.Pid() == self {
			continue
		}

		if !strings.EqualFold(process.Executable(), name) {
			continue
		}

		pids = append(pids, process.Pid())
	}

	return pids, nil
}
