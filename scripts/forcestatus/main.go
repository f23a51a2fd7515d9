// Command forcestatus moves a stored deal to a status from the shell, the
// ops counterpart of the dashboard override buttons. The move still goes
// through the gateway: terminal deals stay closed and cash deals never
// enter the shipping stages.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/boltdb/bolt"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/iraunit/ticktime-sub001/config"
	"github.com/iraunit/ticktime-sub001/internal/deal"
	"github.com/iraunit/ticktime-sub001/internal/lifecycle"
	"github.com/iraunit/ticktime-sub001/misc"
)

var ErrDealNotFound = errors.New("deal not found")

type options struct {
	configPath string
	id         string
	status     string
	tracking   string
	rating     int
	reason     string
	dryRun     bool
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "forcestatus",
		Short: "Force a deal into a status",
		Long: `Force a stored deal into a status, recorded as an override in its history.

Examples:
  # ship a product
  forcestatus --id 42 --status product_shipped --tracking TRK123

  # see what would happen without writing
  forcestatus --id 42 --status cancelled --reason "brand paused" --dry-run`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New(opts.configPath)
			if err != nil {
				return err
			}
			cfg.Logger()

			db, err := misc.OpenDB(cfg.DBPath, cfg.DBName)
			if err != nil {
				return err
			}
			defer db.Close()

			d, err := forceStatus(db, cfg, opts)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "deal %s is now %s (version %d)\n", d.Id, d.Status, d.Version)
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "config/config.json", "Path to the config file")
	cmd.Flags().StringVar(&opts.id, "id", "", "Deal id (required)")
	cmd.Flags().StringVar(&opts.status, "status", "", "Target status (required)")
	cmd.Flags().StringVar(&opts.tracking, "tracking", "", "Tracking number, for product_shipped")
	cmd.Flags().IntVar(&opts.rating, "rating", 0, "Brand rating, for completed")
	cmd.Flags().StringVar(&opts.reason, "reason", "", "Rejection reason, for rejected or cancelled")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Validate without saving")

	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("status")

	return cmd
}

func forceStatus(db *bolt.DB, cfg *config.Config, opts *options) (out *deal.Deal, err error) {
	to, err := lifecycle.ParseStatus(opts.status)
	if err != nil {
		return nil, err
	}

	p := deal.Payload{
		TrackingNumber:  opts.tracking,
		RejectionReason: opts.reason,
		Override:        true,
	}
	if opts.rating != 0 {
		r := opts.rating
		p.Rating = &r
	}

	gw := deal.NewGateway(log.WithField("component", "forcestatus"))

	err = db.Update(func(tx *bolt.Tx) error {
		var d deal.Deal
		if err := misc.GetTxJson(tx, cfg.Bucket.Deal, opts.id, &d); err != nil {
			if errors.Is(err, misc.ErrNotFound) {
				return fmt.Errorf("%w: %s", ErrDealNotFound, opts.id)
			}
			return err
		}

		if out, err = gw.ApplyTransition(&d, to, p); err != nil {
			return err
		}
		if opts.dryRun {
			return nil
		}
		return misc.PutTxJson(tx, cfg.Bucket.Deal, out.Id, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
