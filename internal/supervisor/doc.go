// Vitalport - Health Export Ingestion and Normalization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vitalport

/*
Package supervisor runs the long-lived parts of `vitalport serve` under a
suture v4 supervisor tree.

# Overview

	RootSupervisor ("vitalport")
	├── StorageSupervisor ("storage-layer")
	│   └── CompactionService (ledger retention and badger value log GC)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A compaction failure never takes the HTTP server down: each layer counts its
own failures and restarts its own children with backoff.

Supervisor events (start, stop, panic, backoff) are logged through
sutureslog, bridged to zerolog by logging.NewSlogLogger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddStorageService(services.NewCompactionService("ledger", compactor, time.Hour))
	tree.AddAPIService(services.NewHTTPServerService(server, 30*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return tree.Serve(ctx)
*/
package supervisor
