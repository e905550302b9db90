/*
 * Copyright 2025 The Monbridge Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package db

import (
	"context"
	"embed"
	"fmt"
	"strings"
)

//go:embed migrations/schema.sql
var migrationsFS embed.FS

const schemaFile = "migrations/schema.sql"

// runMigrations applies the consolidated schema. Every statement is
// idempotent, so the file is executed on each start.
func (db *DB) runMigrations(ctx context.Context) error {
	content, err := migrationsFS.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("%w: read schema file: %s", ErrFailedToInit, err)
	}

	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("%w: acquire connection: %s", ErrFailedToInit, err)
	}
	defer conn.Release()

	statements := splitSQLStatements(string(content))

	db.logger.Debug().Int("statement_count", len(statements)).Msg("applying database schema")

	for i, stmt := range statements {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: statement %d: %s", ErrFailedToInit, i+1, err)
		}
	}

	db.logger.Info().Msg("database schema applied")

	return nil
}

// splitSQLStatements splits schema content on statement-terminating
// semicolons, skipping line comments. The schema carries no dollar-quoted
// bodies, so quote tracking covers the single-quote case only.
func splitSQLStatements(content string) []string {
	var (
		statements []string
		current    strings.Builder
		inQuote    bool
	)

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if !inQuote && (trimmed == "" || strings.HasPrefix(trimmed, "--")) {
			continue
		}

		for i := 0; i < len(line); i++ {
			ch := line[i]

			if ch == '\'' {
				inQuote = !inQuote
			}

			if ch == ';' && !inQuote {
				if stmt := strings.TrimSpace(current.String()); stmt != "" {
					statements = append(statements, stmt)
				}

				current.Reset()

				continue
			}

			current.WriteByte(ch)
		}

		current.WriteByte('\n')
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}
