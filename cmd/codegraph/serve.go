// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	kerrors "github.com/kraklabs/codegraph/internal/errors"
	"github.com/kraklabs/codegraph/internal/logging"
	"github.com/kraklabs/codegraph/pkg/query"
	"github.com/kraklabs/codegraph/pkg/reindex"
	"github.com/kraklabs/codegraph/pkg/watch"
)

// codegraphServer holds the process-wide state the HTTP handlers share: a
// single Store handle, the query surface built on it, and the watcher
// tracking its own running state for the watcher-status endpoint.
type codegraphServer struct {
	query    *query.Service
	reindex  *reindex.Reindexer
	watcher  *watch.Watcher
	watchCfg struct {
		enabled bool
	}
	logger *slog.Logger
}

// runServe starts the HTTP query server and blocks until interrupted.
func runServe(args []string, configPath string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.StringP("port", "p", "8089", "Port to listen on")
	watchEnabled := fs.Bool("watch", false, "Also run the file watcher in-process")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph serve [options]

Description:
  Start an HTTP server exposing the query operations (health, stats,
  list, detail, search, callers/callees, edges, cycles, hotspots,
  centrality, scc, community, folder tree, coreness, CK suite, debt)
  over the store built by 'codegraph index'.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg := loadConfigRequired(configPath, globals.JSON)
	logger := logging.New(logging.Options{JSON: globals.JSON, Verbose: globals.Verbose, Quiet: globals.Quiet})

	store, reg, err := openStore(cfg)
	if err != nil {
		kerrors.Fatal(err, globals.JSON)
	}
	defer func() { _ = store.Close() }()

	root := workspaceRoot()
	r := reindex.New(store, reg, root, cfg.Matcher.PositionToleranceLines)
	w := watch.New(root, cfg.Watcher.Extensions, r, logger)

	srv := &codegraphServer{
		query:   query.New(store),
		reindex: r,
		watcher: w,
		logger:  logger,
	}
	srv.watchCfg.enabled = *watchEnabled

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *watchEnabled {
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Warn("watcher stopped", "error", err)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/v1/stats", srv.handleStats)
	mux.HandleFunc("/v1/entities", srv.handleListEntities)
	mux.HandleFunc("/v1/entity", srv.handleDetail)
	mux.HandleFunc("/v1/search", srv.handleFuzzySearch)
	mux.HandleFunc("/v1/callers", srv.handleReverseCallers)
	mux.HandleFunc("/v1/callees", srv.handleForwardCallees)
	mux.HandleFunc("/v1/edges", srv.handleListEdges)
	mux.HandleFunc("/v1/cycles", srv.handleCycles)
	mux.HandleFunc("/v1/hotspots", srv.handleHotspots)
	mux.HandleFunc("/v1/centrality", srv.handleCentrality)
	mux.HandleFunc("/v1/scc", srv.handleSCC)
	mux.HandleFunc("/v1/community", srv.handleCommunity)
	mux.HandleFunc("/v1/folders", srv.handleFolderTree)
	mux.HandleFunc("/v1/coreness", srv.handleCoreness)
	mux.HandleFunc("/v1/ck", srv.handleCKMetrics)
	mux.HandleFunc("/v1/debt", srv.handleDebt)
	mux.HandleFunc("/v1/reindex", srv.handleReindexFile)
	mux.HandleFunc("/v1/watcher", srv.handleWatcherStatus)

	httpSrv := &http.Server{
		Addr:              ":" + *port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving", "port", *port, "watch", *watchEnabled)
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "error", err)
		return 1
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch kerrors.KindOf(err) {
	case kerrors.KindNotFound:
		status = http.StatusNotFound
	case kerrors.KindBadRequest, kerrors.KindNotUtf8:
		status = http.StatusBadRequest
	case kerrors.KindDisconnected:
		status = http.StatusServiceUnavailable
	}
	payload := map[string]any{"error": err.Error()}
	var e *kerrors.Error
	if as, ok := err.(*kerrors.Error); ok {
		e = as
		if len(e.Suggestions) > 0 {
			payload["suggestions"] = e.Suggestions
		}
	}
	writeJSON(w, status, payload)
}

func scopeFromQuery(r *http.Request) query.Scope {
	return query.Scope{L1: r.URL.Query().Get("l1"), L2: r.URL.Query().Get("l2")}
}

func (s *codegraphServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.query.Health())
}

func (s *codegraphServer) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.query.Stats(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *codegraphServer) handleListEntities(w http.ResponseWriter, r *http.Request) {
	list, err := s.query.ListEntities(r.Context(), r.URL.Query().Get("type"), scopeFromQuery(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *codegraphServer) handleDetail(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	detail, err := s.query.Detail(r.Context(), key, scopeFromQuery(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *codegraphServer) handleFuzzySearch(w http.ResponseWriter, r *http.Request) {
	results, err := s.query.FuzzySearch(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *codegraphServer) handleReverseCallers(w http.ResponseWriter, r *http.Request) {
	callers, err := s.query.ReverseCallers(r.Context(), r.URL.Query().Get("entity"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, callers)
}

func (s *codegraphServer) handleForwardCallees(w http.ResponseWriter, r *http.Request) {
	callees, err := s.query.ForwardCallees(r.Context(), r.URL.Query().Get("entity"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, callees)
}

func (s *codegraphServer) handleListEdges(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if limit <= 0 {
		limit = 100
	}
	page, err := s.query.ListEdges(r.Context(), limit, offset)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *codegraphServer) handleCycles(w http.ResponseWriter, r *http.Request) {
	cycles, err := s.query.Cycles(r.Context(), scopeFromQuery(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cycles)
}

func (s *codegraphServer) handleHotspots(w http.ResponseWriter, r *http.Request) {
	top := query.ParseTop(r.URL.Query().Get("top"), 20)
	hotspots, err := s.query.Hotspots(r.Context(), top, scopeFromQuery(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hotspots)
}

func (s *codegraphServer) handleCentrality(w http.ResponseWriter, r *http.Request) {
	top := query.ParseTop(r.URL.Query().Get("top"), 20)
	method := r.URL.Query().Get("method")
	if method == "" {
		method = "pagerank"
	}
	entries, err := s.query.Centrality(r.Context(), method, top, scopeFromQuery(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *codegraphServer) handleSCC(w http.ResponseWriter, r *http.Request) {
	sccs, err := s.query.SCC(r.Context(), scopeFromQuery(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sccs)
}

func (s *codegraphServer) handleCommunity(w http.ResponseWriter, r *http.Request) {
	result, err := s.query.Community(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *codegraphServer) handleFolderTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.query.FolderTree(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *codegraphServer) handleCoreness(w http.ResponseWriter, r *http.Request) {
	entries, err := s.query.Coreness(r.Context(), scopeFromQuery(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *codegraphServer) handleCKMetrics(w http.ResponseWriter, r *http.Request) {
	results, err := s.query.CKMetrics(r.Context(), scopeFromQuery(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *codegraphServer) handleDebt(w http.ResponseWriter, r *http.Request) {
	results, err := s.query.Debt(r.Context(), scopeFromQuery(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *codegraphServer) handleReindexFile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, kerrors.NewBadRequestError("POST required"))
		return
	}
	var req struct {
		Path     string `json:"path"`
		FullPath string `json:"full_path"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, kerrors.NewBadRequestError("invalid request body: %v", err))
		return
	}
	if err := s.reindex.Validate(req.Path, req.Language); err != nil {
		writeErr(w, err)
		return
	}
	outcome, err := s.reindex.ReindexFile(r.Context(), req.Path, req.FullPath, req.Language)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *codegraphServer) handleWatcherStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.watcher.Status(s.watchCfg.enabled))
}
