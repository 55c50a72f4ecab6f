package commands

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/roasbeef/troupe/actor"
)

// chainDepth is the total length of the spawn chain, root included.
var chainDepth int

// chainCmd builds a chain of actors: each actor spawns exactly one child on
// HELLO and then terminates, until the requested depth is reached. The whole
// chain runs through the SPAWN/HELLO protocol, so it exercises actor
// creation under load.
var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Spawn a chain of actors to the requested depth",
	RunE: func(cmd *cobra.Command, args []string) error {
		var remaining atomic.Int64
		remaining.Store(int64(chainDepth))

		// Every link shares one role; the closure reaches the role
		// itself so a link can spawn the next one.
		var link *actor.Role
		link = &actor.Role{
			Handlers: []actor.Handler{
				actor.MsgHello: func(ctx *actor.Context,
					data any) {

					if remaining.Add(-1) > 0 {
						_ = ctx.Send(ctx.Self(),
							actor.Message{
								Type: actor.MsgSpawn,
								Data: link,
							})
					}

					_ = ctx.Send(ctx.Self(), actor.Message{
						Type: actor.MsgTerminate,
					})
				},
			},
		}

		start := time.Now()

		system, rootID, err := actor.NewSystem(link)
		if err != nil {
			return err
		}

		if err := system.Join(cmd.Context(), rootID); err != nil {
			return err
		}

		fmt.Printf("chain: %d actors spawned and joined in %v\n",
			system.ActorCount(), time.Since(start))

		return nil
	},
}

func init() {
	chainCmd.Flags().IntVar(
		&chainDepth, "depth", 1000,
		"Chain length, root included",
	)
}
