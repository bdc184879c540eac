package eix

import (
	"fmt"
)

// Package is a single package with all its versions.
type Package struct {
	Category    string     `json:"category" yaml:"category"`
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description" yaml:"description"`
	Homepage    string     `json:"homepage" yaml:"homepage"`
	Licenses    string     `json:"licenses" yaml:"licenses"`
	Versions    []*Version `json:"versions" yaml:"versions"`
}

// FullName returns "category/name".
func (p *Package) FullName() string {
	return p.Category + "/" + p.Name
}

type cursorState int

const (
	stateReady cursorState = iota
	stateInCategory
	stateExhausted
)

// Cursor walks the categories and packages that follow the header.
//
// The stream can only be read in order: call NextCategory, then ReadPackage
// until it returns nil, then NextCategory again. Once a read fails, the
// Cursor keeps returning that error.
type Cursor struct {
	r      *Reader
	h      *Header
	strict bool

	state             cursorState
	categoriesLeft    uint64
	packagesLeft      uint64
	category          string
	err               error
	packagesRead      uint64
	versionsRead      uint64
	categoriesEntered uint64
}

// NewCursor returns a Cursor positioned right after the header h.
// If strictHints is set, the package length hints are checked against the
// number of bytes actually consumed.
func NewCursor(r *Reader, h *Header, strictHints bool) *Cursor {
	return &Cursor{
		r:              r,
		h:              h,
		strict:         strictHints,
		categoriesLeft: h.Categories,
	}
}

// Header returns the header the Cursor decodes against.
func (c *Cursor) Header() *Header {
	return c.h
}

// Category returns the name of the current category.
func (c *Cursor) Category() string {
	return c.category
}

// Err returns the error that stopped the Cursor, if any.
func (c *Cursor) Err() error {
	return c.err
}

// NextCategory moves to the next category. It returns false once all
// categories have been read.
func (c *Cursor) NextCategory() (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	if c.state == stateExhausted {
		return false, nil
	}
	if c.state == stateInCategory && c.packagesLeft > 0 {
		return false, ErrCategoryNotDone
	}
	if c.categoriesLeft == 0 {
		c.state = stateExhausted
		c.category = ""
		return false, nil
	}

	name, err := c.r.ReadString()
	if err != nil {
		return false, c.fail(withField(err, "category name"))
	}
	n, err := c.r.ReadNum()
	if err != nil {
		return false, c.fail(withField(err, "category size"))
	}

	c.categoriesLeft--
	c.categoriesEntered++
	c.category = name
	c.packagesLeft = n
	c.state = stateInCategory
	return true, nil
}

// ReadPackage reads the next package of the current category. It returns
// nil without error once the category has no packages left.
func (c *Cursor) ReadPackage() (*Package, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.state != stateInCategory || c.packagesLeft == 0 {
		return nil, nil
	}

	hintStart := c.r.Offset()
	hint, err := c.r.ReadNum()
	if err != nil {
		return nil, c.fail(withField(err, "package length"))
	}
	frameStart := c.r.Offset()

	p := &Package{Category: c.category}
	fields := []struct {
		name string
		dst  *string
	}{
		{"package name", &p.Name},
		{"description", &p.Description},
		{"homepage", &p.Homepage},
	}
	for _, f := range fields {
		*f.dst, err = c.r.ReadString()
		if err != nil {
			return nil, c.fail(withField(err, f.name))
		}
	}
	p.Licenses, err = c.r.ReadHashString(c.h.License)
	if err != nil {
		return nil, c.fail(withField(err, "licenses"))
	}

	nVersions, err := c.r.readCount()
	if err != nil {
		return nil, c.fail(withField(err, "version count"))
	}
	p.Versions = make([]*Version, 0, min(nVersions, maxPrealloc))
	for i := 0; i < nVersions; i++ {
		v, err := c.r.ReadVersion(c.h)
		if err != nil {
			return nil, c.fail(err)
		}
		v.VersionString = v.FullVersion()
		p.Versions = append(p.Versions, v)
	}

	if c.strict {
		if consumed := uint64(c.r.Offset() - frameStart); consumed != hint {
			return nil, c.fail(&Error{
				Kind:   KindInvalidEncoding,
				Offset: hintStart,
				Field:  "package length",
				Detail: fmt.Sprintf("package %s/%s: length hint %d, but frame has %d bytes",
					p.Category, p.Name, hint, consumed),
			})
		}
	}

	c.packagesLeft--
	c.packagesRead++
	c.versionsRead += uint64(len(p.Versions))
	return p, nil
}

// Walk calls fn for every remaining package in the stream. It stops at the
// first error returned by fn or by the decoder.
func (c *Cursor) Walk(fn func(p *Package) error) error {
	for {
		// Finish the current category first, we may be halfway
		for {
			p, err := c.ReadPackage()
			if err != nil {
				return err
			}
			if p == nil {
				break
			}
			if err := fn(p); err != nil {
				return err
			}
		}
		more, err := c.NextCategory()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// CursorStats are running totals of what a Cursor decoded.
type CursorStats struct {
	Categories uint64
	Packages   uint64
	Versions   uint64
	Bytes      int64
}

// Stats returns the running totals.
func (c *Cursor) Stats() CursorStats {
	return CursorStats{
		Categories: c.categoriesEntered,
		Packages:   c.packagesRead,
		Versions:   c.versionsRead,
		Bytes:      c.r.Offset(),
	}
}

func (c *Cursor) fail(err error) error {
	c.err = err
	return err
}
