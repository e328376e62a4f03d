// Command example demonstrates a minimal three-service dependency chain
// under servicemanager: ServiceA starts, then ServiceB, then ServiceC, each
// waiting for the previous to signal it has started. ServiceB fails shortly
// after starting to show the manager's shutdown-on-error path.
package main

import (
	"context"
	"time"

	"github.com/bsv-blockchain/utxoledger/errors"
	"github.com/bsv-blockchain/utxoledger/ulogger"
	"github.com/bsv-blockchain/utxoledger/util/servicemanager"
)

// sampleService is a toy Service for demonstration purposes.
type sampleService struct {
	name   string
	logger ulogger.Logger
}

func newService(name string) *sampleService {
	return &sampleService{
		name:   name,
		logger: ulogger.New(name),
	}
}

func (s *sampleService) Init(ctx context.Context) error {
	return nil
}

func (s *sampleService) Start(ctx context.Context, readyCh chan struct{}) error {
	s.logger.Infof("service %s is running...", s.name)
	close(readyCh)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			if s.name == "SvcB" {
				return errors.NewServiceError("SvcB start encountered an error")
			}
		}
	}
}

func (s *sampleService) Stop(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(1 * time.Second):
		s.logger.Infof("service %s stopped", s.name)
	}

	return nil
}

func (s *sampleService) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	return 200, s.name, nil
}

func main() {
	logger := ulogger.New("main")

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sm := servicemanager.NewServiceManager(rootCtx, logger)

	if err := sm.AddService("ServiceA", newService("SvcA")); err != nil {
		logger.Infof("failed to add ServiceA: %v", err)
		return
	}

	if err := sm.AddService("ServiceB", newService("SvcB")); err != nil {
		logger.Infof("failed to add ServiceB: %v", err)
		return
	}

	if err := sm.AddService("ServiceC", newService("SvcC")); err != nil {
		logger.Infof("failed to add ServiceC: %v", err)
		return
	}

	if err := sm.Wait(); err != nil {
		logger.Infof("service manager returned error: %v", err)
	} else {
		logger.Infof("service manager returned with no errors")
	}
}
