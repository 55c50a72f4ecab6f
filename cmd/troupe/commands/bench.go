package commands

import (
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/spf13/cobra"

	"github.com/roasbeef/troupe/actor"
)

// msgDone is the completion report a bench worker sends its parent.
const msgDone actor.MsgType = 3

var (
	// benchActors is the number of worker actors to spawn.
	benchActors int

	// benchIters is the number of spin iterations per worker.
	benchIters int

	// benchWorkers is the dispatch pool size.
	benchWorkers int
)

// benchCmd spawns a set of CPU-bound worker actors and reports wall-clock
// throughput. With a pool larger than one, unrelated workers dispatch in
// parallel.
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a parallel CPU-bound actor workload",
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchActors < 1 {
			benchActors = 1
		}

		// Workers burn CPU on HELLO, report to the parent carried in
		// the HELLO payload, then die.
		workerRole := &actor.Role{
			Handlers: []actor.Handler{
				actor.MsgHello: func(ctx *actor.Context,
					data any) {

					parent := data.(fn.Option[actor.ID])

					spin(benchIters)

					parent.WhenSome(func(id actor.ID) {
						_ = ctx.Send(id, actor.Message{
							Type: msgDone,
						})
					})

					_ = ctx.Send(ctx.Self(), actor.Message{
						Type: actor.MsgTerminate,
					})
				},
			},
		}

		// The root fans the spawns out, counts completions, and dies
		// once every worker has reported.
		completed := 0
		rootRole := &actor.Role{
			Handlers: []actor.Handler{
				actor.MsgHello: func(ctx *actor.Context,
					data any) {

					for i := 0; i < benchActors; i++ {
						_ = ctx.Send(ctx.Self(),
							actor.Message{
								Type: actor.MsgSpawn,
								Data: workerRole,
							})
					}
				},
				msgDone: func(ctx *actor.Context, data any) {
					completed++
					if completed == benchActors {
						_ = ctx.Send(ctx.Self(),
							actor.Message{
								Type: actor.MsgTerminate,
							})
					}
				},
			},
		}

		start := time.Now()

		system, rootID, err := actor.NewSystem(
			rootRole, actor.WithPoolSize(benchWorkers),
		)
		if err != nil {
			return err
		}

		if err := system.Join(cmd.Context(), rootID); err != nil {
			return err
		}

		elapsed := time.Since(start)
		fmt.Printf("bench: %d workers x %d iterations on %d pool "+
			"workers in %v (%d actors total)\n",
			benchActors, benchIters, benchWorkers, elapsed,
			system.ActorCount())

		return nil
	},
}

// spin burns CPU without allocating, keeping each worker busy long enough
// for parallel dispatch to be visible.
func spin(iters int) {
	acc := uint64(1)
	for i := 0; i < iters; i++ {
		acc = acc*6364136223846793005 + 1442695040888963407
	}

	// Keep the result observable so the loop is not eliminated.
	if acc == 0 {
		panic("unreachable")
	}
}

func init() {
	benchCmd.Flags().IntVar(
		&benchActors, "actors", 4,
		"Number of worker actors to spawn",
	)
	benchCmd.Flags().IntVar(
		&benchIters, "iters", 10_000_000,
		"Spin iterations per worker",
	)
	benchCmd.Flags().IntVar(
		&benchWorkers, "workers", actor.DefaultPoolSize,
		"Dispatch pool size",
	)
}
