// Package core provides the business logic for bulk business imports.
//
// An import runs as a four-stage pipeline:
//
//  1. [Parse] splits the file into rows with a quote-aware scanner and
//     checks the header for the required fields (name, email, admin_name).
//  2. [ValidateRow] checks each row's email, phone, website and name
//     lengths. Invalid rows are reported and dropped.
//  3. [MapRow] maps a row onto business attributes and resolves its
//     category, either from the batch-level override or by name.
//  4. [Importer.Commit] creates an owner account and a business for every
//     row, skipping owners that already exist and recording failed rows
//     without stopping the batch.
//
// [Service] wraps the pipeline with file checks, an import concurrency
// limit and structured logging. Persistence and password hashing are
// supplied by the caller through [Store] and [PasswordHasher].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Every message carries a support code (DB, FILE, IMP, AUTH, RATE, ERR).
package core
