package export

import (
	"context"
	"fmt"
	"io"
	"os"

	"simlink.dev/connector/pkg/link"
)

const (
	STDOUT = "stdout"
	STDERR = "stderr"
)

// Print writes one line per sample. Connection selects stdout or stderr.
type Print struct {
	name string
	out  io.Writer
}

func NewPrint(name, connection string) *Print {
	p := &Print{name: name}
	switch connection {
	case STDERR:
		p.out = os.Stderr
	default:
		p.out = os.Stdout
	}
	return p
}

func (p *Print) Name() string {
	return p.name
}

func (p *Print) Export(ctx context.Context, datasourceID string, signal link.SignalDefinition, samples []link.Sample) error {
	for _, s := range samples {
		_, err := fmt.Fprintf(p.out, "Datasource: %s; Signal: %s (%s); Time: %s; Value: %v\n",
			datasourceID, signal.Name, signal.DataID, s.Key, s.Value)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p *Print) Close() error {
	return nil
}
