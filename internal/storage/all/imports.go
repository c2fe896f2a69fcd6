// Package all wires the built-in storage backends into the storage registry.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories and DDL bootstrappers with the storage package. The CLI
// imports it once; everything else depends only on storage.Repository.
//
// Storage kinds made available:
//
//   - "postgres" (budgetetl/internal/storage/postgres)
package all

import (
	_ "budgetetl/internal/storage/postgres"
)
