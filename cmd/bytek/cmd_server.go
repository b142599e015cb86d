package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bytekstore/bytek/app/routes"
	"github.com/bytekstore/bytek/config"
	"github.com/bytekstore/bytek/internal/kernel"
	"github.com/bytekstore/bytek/internal/server"
	"github.com/bytekstore/bytek/pkg/router"
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// bytek serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		h, err := k.Handler()
		if err != nil {
			return err
		}
		k.Start(ctx)

		return server.Run(ctx, h, server.Options{
			Port:     config.AppPort(),
			GRPCPort: config.GRPCPort(),
			Probe:    k.Ping,
		})
	},
}

// bytek route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List the API routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := router.New()
		routes.RegisterAPI(r, &routes.Controllers{})

		infos := r.Routes()
		sort.Slice(infos, func(i, j int) bool {
			if infos[i].Path != infos[j].Path {
				return infos[i].Path < infos[j].Path
			}
			return infos[i].Method < infos[j].Method
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
