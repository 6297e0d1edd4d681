// Package io serializes compiled BVH trees and raw triangle soups as flat
// little-endian buffers. The on-disk node and triangle records are
// byte-identical to the in-memory ones, so a consumer can upload the file
// payload to a compute device without repacking.
package io

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kperelygin/lumen/bvh"
	"github.com/kperelygin/lumen/log"
)

const fileVersion uint32 = 1

var (
	treeMagic = [4]byte{'L', 'B', 'V', 'H'}
	soupMagic = [4]byte{'L', 'T', 'R', 'I'}
)

var logger = log.New("io")

type header struct {
	Magic   [4]byte
	Version uint32
}

func writeHeader(w io.Writer, magic [4]byte) error {
	return binary.Write(w, binary.LittleEndian, header{Magic: magic, Version: fileVersion})
}

func readHeader(r io.Reader, magic [4]byte) error {
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return err
	}
	if h.Magic != magic {
		return fmt.Errorf("invalid magic %q; expected %q", h.Magic, magic)
	}
	if h.Version != fileVersion {
		return fmt.Errorf("unsupported file version %d; expected %d", h.Version, fileVersion)
	}
	return nil
}

// Write a compiled tree. The three buffers are emitted back to back after a
// small header: nodes, remapped triangles, source index table. Build
// statistics are not persisted; use bvh.Summarize to recover the structural
// counters after a read.
func WriteTree(w io.Writer, t *bvh.Tree) error {
	if err := writeHeader(w, treeMagic); err != nil {
		return err
	}

	counts := [2]uint32{uint32(len(t.Nodes)), uint32(len(t.Triangles))}
	if err := binary.Write(w, binary.LittleEndian, counts); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, t.Nodes); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, t.Triangles); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, t.SourceIndex)
}

// Read a compiled tree written by WriteTree.
func ReadTree(r io.Reader) (*bvh.Tree, error) {
	if err := readHeader(r, treeMagic); err != nil {
		return nil, err
	}

	var counts [2]uint32
	if err := binary.Read(r, binary.LittleEndian, &counts); err != nil {
		return nil, err
	}

	t := &bvh.Tree{
		Nodes:       make([]bvh.Node, counts[0]),
		Triangles:   make([]bvh.Triangle, counts[1]),
		SourceIndex: make([]uint32, counts[1]),
	}
	if err := binary.Read(r, binary.LittleEndian, t.Nodes); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, t.Triangles); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, t.SourceIndex); err != nil {
		return nil, err
	}
	return t, nil
}

// Write a compiled tree to a file.
func WriteTreeFile(path string, t *bvh.Tree) error {
	logger.Noticef(`writing compiled BVH to "%s"`, path)
	start := time.Now()

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = WriteTree(f, t); err != nil {
		return err
	}
	logger.Noticef("wrote compiled BVH in %d ms", time.Since(start).Nanoseconds()/1e6)
	return nil
}

// Read a compiled tree from a file.
func ReadTreeFile(path string) (*bvh.Tree, error) {
	logger.Noticef(`loading compiled BVH from "%s"`, path)
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ReadTree(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", path, err.Error())
	}
	logger.Noticef("loaded compiled BVH in %d ms", time.Since(start).Nanoseconds()/1e6)
	return t, nil
}

// Write a raw triangle soup. This is the input interchange format of the
// compiler: a flat list of world-space triangle records produced by an
// external mesh loader.
func WriteSoup(w io.Writer, triangles []bvh.Triangle) error {
	if err := writeHeader(w, soupMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(triangles))); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, triangles)
}

// Read a raw triangle soup written by WriteSoup.
func ReadSoup(r io.Reader) ([]bvh.Triangle, error) {
	if err := readHeader(r, soupMagic); err != nil {
		return nil, err
	}

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}

	triangles := make([]bvh.Triangle, count)
	if err := binary.Read(r, binary.LittleEndian, triangles); err != nil {
		return nil, err
	}
	return triangles, nil
}

// Read a raw triangle soup from a file.
func ReadSoupFile(path string) ([]bvh.Triangle, error) {
	logger.Noticef(`loading triangle soup from "%s"`, path)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	triangles, err := ReadSoup(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %s", path, err.Error())
	}
	logger.Noticef("loaded %d triangles", len(triangles))
	return triangles, nil
}

// Write a raw triangle soup to a file.
func WriteSoupFile(path string, triangles []bvh.Triangle) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteSoup(f, triangles)
}
