package clients

import (
	"context"
	"fmt"

	"github.com/graft-pt/graft/internal/graft"
	"github.com/graft-pt/graft/internal/models"
)

// Dial is the factory function the CLI commands and the scheduler use to
// turn a persisted Client record into a live adapter that they then hand to
// the importer, planner and executor, exhaustively switching over
// the closed set of known variants. Dialers for each variant are supplied
// by the caller so this package never imports the concrete adapter
// packages (qbittorrent and transmission each import clients, not the
// reverse).
type Dial func(ctx context.Context, c *models.Client) (Client, error)

// Dialers maps each known ClientType to its adapter constructor.
type Dialers map[models.ClientType]Dial

// Connect dispatches c to the dialer registered for its variant.
func (d Dialers) Connect(ctx context.Context, c *models.Client) (Client, error) {
	dial, ok := d[c.Variant]
	if !ok {
		return nil, graft.New(graft.KindConfig, "clients.Connect", fmt.Errorf("unknown client variant %q", c.Variant))
	}
	return dial(ctx, c)
}

// Scheme returns "https" or "http" for a client record's HTTPS flag,
// suitable for building a dialer's target URL.
func Scheme(https bool) string {
	if https {
		return "https"
	}
	return "http"
}
