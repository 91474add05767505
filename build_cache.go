// Copyright (C) 2022  Shanhu Tech Inc.
//
// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the
// Free Software Foundation, either version 3 of the License, or (at your
// option) any later version.
//
// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
// for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package craft

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	"shanhu.io/misc/errcode"

	_ "modernc.org/sqlite" // sqlite driver
)

const buildCacheFileName = "cache.db"

var errNotFoundInCache = errors.New("not found in cache")

const buildCacheSchema = `create table if not exists digests (
	variant text not null,
	operator text not null,
	digest text not null,
	time integer not null,
	primary key (variant, operator)
)`

// BuildCacheFile returns the digest cache file of a variant under root.
func BuildCacheFile(root, variant string) string {
	return filepath.Join(root, variant, buildCacheFileName)
}

// BuildCache records the operator digests of the last recorded build of a
// variant, so that dirty operators can be found.
type BuildCache struct {
	db      *sql.DB
	variant string
}

// OpenBuildCache opens or creates a digest cache.
func OpenBuildCache(file, variant string) (*BuildCache, error) {
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return nil, errcode.Annotate(err, "make cache dir")
	}
	db, err := sql.Open("sqlite", file)
	if err != nil {
		return nil, errcode.Annotate(err, "open cache")
	}
	if _, err := db.Exec(buildCacheSchema); err != nil {
		db.Close()
		return nil, errcode.Annotate(err, "create cache table")
	}
	return &BuildCache{db: db, variant: variant}, nil
}

// Close closes the cache.
func (c *BuildCache) Close() error { return c.db.Close() }

func (c *BuildCache) get(op string) (string, time.Time, error) {
	row := c.db.QueryRow(
		`select digest, time from digests
		where variant = ? and operator = ?`,
		c.variant, op,
	)
	var digest string
	var sec int64
	if err := row.Scan(&digest, &sec); err != nil {
		if err == sql.ErrNoRows {
			return "", time.Time{}, errNotFoundInCache
		}
		return "", time.Time{}, errcode.Annotate(err, "query cache")
	}
	return digest, time.Unix(sec, 0), nil
}

func (c *BuildCache) put(x execer, op, digest string, t time.Time) error {
	if _, err := x.Exec(
		`insert or replace into digests (variant, operator, digest, time)
		values (?, ?, ?, ?)`,
		c.variant, op, digest, t.Unix(),
	); err != nil {
		return errcode.Annotatef(err, "put %q", op)
	}
	return nil
}

type execer interface {
	Exec(q string, args ...interface{}) (sql.Result, error)
}

// Get returns the recorded digest of an operator.
func (c *BuildCache) Get(op string) (digest string, ok bool, err error) {
	d, _, err := c.get(op)
	if err == errNotFoundInCache {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return d, true, nil
}

// Put records the digest of an operator.
func (c *BuildCache) Put(op, digest string, t time.Time) error {
	return c.put(c.db, op, digest, t)
}

// Remove removes the record of an operator.
func (c *BuildCache) Remove(op string) error {
	if _, err := c.db.Exec(
		`delete from digests where variant = ? and operator = ?`,
		c.variant, op,
	); err != nil {
		return errcode.Annotatef(err, "remove %q", op)
	}
	return nil
}

// Dirty returns the IDs of the operators in g whose digest is not the
// recorded one, in graph order.
func (c *BuildCache) Dirty(g *Graph) ([]string, error) {
	var dirty []string
	for _, op := range g.Operators() {
		digest, err := OperatorDigest(op)
		if err != nil {
			return nil, errcode.Annotatef(err, "digest %q", op.ID())
		}
		recorded, _, err := c.get(op.ID())
		if err == errNotFoundInCache {
			dirty = append(dirty, op.ID())
			continue
		}
		if err != nil {
			return nil, err
		}
		if recorded != digest {
			dirty = append(dirty, op.ID())
		}
	}
	return dirty, nil
}

// Record replaces all records of the variant with the digests of g.
func (c *BuildCache) Record(g *Graph, t time.Time) error {
	digests, err := Digests(g)
	if err != nil {
		return err
	}

	tx, err := c.db.Begin()
	if err != nil {
		return errcode.Annotate(err, "begin")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`delete from digests where variant = ?`, c.variant,
	); err != nil {
		return errcode.Annotate(err, "clear records")
	}
	for op, digest := range digests {
		if err := c.put(tx, op, digest, t); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return errcode.Annotate(err, "commit")
	}
	return nil
}
