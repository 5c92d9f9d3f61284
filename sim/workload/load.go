// Package workload reads process, resource and action inputs.
//
// Inputs are line oriented: one comma separated record per line, fields
// whitespace-trimmed, blank lines skipped. Sources are addressed through
// github.com/viant/afs, so a plain path, a file:// URL and a mem:// URL are
// all valid locations.
package workload

import (
	"bytes"
	"context"
	"io/fs"

	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/inference-sim/cpu-sim/sim"
	"github.com/inference-sim/cpu-sim/sim/contention"
)

// Loader reads inputs through an afs.Service.
type Loader struct {
	fs afs.Service
}

// NewLoader returns a Loader backed by service, or by afs.New() when nil.
func NewLoader(service afs.Service) *Loader {
	if service == nil {
		service = afs.New()
	}
	return &Loader{fs: service}
}

// download fetches the whole source. A missing or unreadable source is a
// FileUnavailableError.
func (l *Loader) download(ctx context.Context, location string) ([]byte, error) {
	URL := url.Normalize(location, file.Scheme)
	exists, err := l.fs.Exists(ctx, URL)
	if err != nil {
		return nil, &sim.FileUnavailableError{Path: location, Err: err}
	}
	if !exists {
		return nil, &sim.FileUnavailableError{Path: location, Err: fs.ErrNotExist}
	}
	data, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, &sim.FileUnavailableError{Path: location, Err: err}
	}
	return data, nil
}

// Processes loads process records from location.
func (l *Loader) Processes(ctx context.Context, location string) ([]sim.Process, error) {
	data, err := l.download(ctx, location)
	if err != nil {
		return nil, err
	}
	procs, err := ParseProcesses(bytes.NewReader(data), location)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("loaded %d processes from %s", len(procs), location)
	return procs, nil
}

// Resources loads resource records from location.
func (l *Loader) Resources(ctx context.Context, location string) ([]contention.Resource, error) {
	data, err := l.download(ctx, location)
	if err != nil {
		return nil, err
	}
	resources, err := ParseResources(bytes.NewReader(data), location)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("loaded %d resources from %s", len(resources), location)
	return resources, nil
}

// Actions loads action records from location.
func (l *Loader) Actions(ctx context.Context, location string) ([]contention.Action, error) {
	data, err := l.download(ctx, location)
	if err != nil {
		return nil, err
	}
	actions, err := ParseActions(bytes.NewReader(data), location)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("loaded %d actions from %s", len(actions), location)
	return actions, nil
}
