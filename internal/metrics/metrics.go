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

// Package metrics exposes the Prometheus collectors shared by the
// ingestion pipeline, the incremental reindexer, the store adapter, and the
// graph analysis engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry groups every collector codegraph registers. A single instance
// is created at process startup and threaded through the components that
// need it, rather than relying on the default global registerer more than
// once.
type Registry struct {
	FilesIndexed     prometheus.Counter
	FilesSkipped     *prometheus.CounterVec
	EntitiesUpserted prometheus.Counter
	EdgesUpserted    prometheus.Counter
	ReindexDuration  prometheus.Histogram
	StoreQueryLatency *prometheus.HistogramVec
	AnalysisDuration  *prometheus.HistogramVec
}

// NewRegistry builds and registers the codegraph collector set against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		FilesIndexed: factory.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_files_indexed_total",
			Help: "Number of files successfully parsed during ingestion.",
		}),
		FilesSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codegraph_files_skipped_total",
			Help: "Number of files skipped during ingestion, by reason.",
		}, []string{"reason"}),
		EntitiesUpserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_entities_upserted_total",
			Help: "Number of CodeEntity records written to the store.",
		}),
		EdgesUpserted: factory.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_edges_upserted_total",
			Help: "Number of DependencyEdge records written to the store.",
		}),
		ReindexDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "codegraph_reindex_duration_seconds",
			Help:    "Wall-clock duration of a single reindex_file call.",
			Buckets: prometheus.DefBuckets,
		}),
		StoreQueryLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codegraph_store_query_duration_seconds",
			Help:    "Latency of store queries, by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		AnalysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codegraph_analysis_duration_seconds",
			Help:    "Duration of a graph analysis run, by algorithm.",
			Buckets: prometheus.DefBuckets,
		}, []string{"algorithm"}),
	}
}
