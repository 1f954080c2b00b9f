package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/kicad-lcsc/internal/adapters/driving/mcp"
	"github.com/custodia-labs/kicad-lcsc/internal/logger"
	"github.com/custodia-labs/kicad-lcsc/internal/metrics"
)

var (
	mcpPort        int
	mcpMetricsAddr string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the importer to MCP clients",
	Long: `Serve search_component, find_components, import_component and
library_info, and the lcsc://components/{id} resource, to an MCP client.

JSON-RPC runs over stdio unless --port selects the streamable HTTP
transport. Expired source-cache rows are purged hourly while serving.

Examples:
  kicad-lcsc mcp serve
  kicad-lcsc mcp serve --port 8080 --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "serve HTTP on this port instead of stdio")
	mcpServeCmd.Flags().StringVar(&mcpMetricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return fmt.Errorf("mcp: %w", errNotConfigured)
	}
	server, err := mcp.NewServer(&mcp.Ports{
		Search:    searchService,
		Component: componentService,
		Library:   libraryService,
	}, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if mcpMetricsAddr != "" {
		go serveMetrics(ctx, mcpMetricsAddr)
	}
	if scheduler != nil {
		go scheduler.Start(ctx) //nolint:errcheck
		defer scheduler.Stop()  //nolint:errcheck
	}

	if mcpPort <= 0 {
		return server.Run(ctx)
	}
	addr := fmt.Sprintf(":%d", mcpPort)
	cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
	return server.RunHTTP(ctx, addr)
}

// serveMetrics runs the Prometheus endpoint until ctx ends. Failures are
// logged, never fatal to the MCP server.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background()) //nolint:errcheck
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn("metrics server: %v", err)
	}
}
