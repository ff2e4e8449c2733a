// Package services - DigestService keeps a Merkle tree over the activity
// log so that a client holding a proof can detect rewritten history.
package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/urbanpulse/report-server/internal/models"
	"go.uber.org/zap"
)

// DigestService manages the Merkle tree for activity log integrity
type DigestService struct {
	mu            sync.RWMutex
	leaves        []string
	layers        [][]string
	root          string
	lastBuildTime time.Time
	logger        *zap.SugaredLogger
}

// NewDigestService creates an empty digest
func NewDigestService(logger *zap.SugaredLogger) *DigestService {
	return &DigestService{logger: logger}
}

// BuildFromHashes rebuilds the tree from a list of activity hashes
func (m *DigestService) BuildFromHashes(hashes []string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.leaves = append([]string(nil), hashes...)
	m.buildTree()
	m.lastBuildTime = time.Now()

	m.logger.Infow("Activity digest rebuilt",
		"leaves", len(m.leaves),
		"root", m.root,
	)
}

// Root returns the current Merkle root; empty when there are no leaves
func (m *DigestService) Root() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.root
}

// LeafCount returns the number of leaves
func (m *DigestService) LeafCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.leaves)
}

// LastBuildTime returns when the tree was last rebuilt
func (m *DigestService) LastBuildTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastBuildTime
}

// Proof returns the sibling path from leaf index up to the root.
func (m *DigestService) Proof(index int) (*models.DigestProof, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if index < 0 || index >= len(m.leaves) {
		return nil, fmt.Errorf("leaf %d not in digest of %d entries", index, len(m.leaves))
	}

	steps := make([]models.ProofStep, 0, len(m.layers))
	pos := index
	for _, level := range m.layers[:len(m.layers)-1] {
		step := models.ProofStep{Hash: level[pos], Position: "left"}
		switch {
		case pos%2 == 0 && pos+1 < len(level):
			step = models.ProofStep{Hash: level[pos+1], Position: "right"}
		case pos%2 == 0:
			// odd node out, hashed with itself
			step.Position = "right"
		default:
			step.Hash = level[pos-1]
		}
		steps = append(steps, step)
		pos /= 2
	}

	return &models.DigestProof{
		LeafHash: m.leaves[index],
		Root:     m.root,
		Index:    index,
		Proof:    steps,
	}, nil
}

// Verify recomputes the root from the proof path.
func Verify(p models.DigestProof) bool {
	if p.LeafHash == "" || p.Root == "" {
		return false
	}
	current := p.LeafHash
	for _, step := range p.Proof {
		switch step.Position {
		case "left":
			current = hashPair(step.Hash, current)
		case "right":
			current = hashPair(current, step.Hash)
		default:
			return false
		}
	}
	return current == p.Root
}

// buildTree recomputes layers and root. Caller holds the write lock.
func (m *DigestService) buildTree() {
	m.layers, m.root = nil, ""
	if len(m.leaves) == 0 {
		return
	}

	level := append([]string(nil), m.leaves...)
	m.layers = append(m.layers, level)
	for len(level) > 1 {
		parents := make([]string, (len(level)+1)/2)
		for i := range parents {
			l, r := level[2*i], level[2*i]
			if 2*i+1 < len(level) {
				r = level[2*i+1]
			}
			parents[i] = hashPair(l, r)
		}
		m.layers = append(m.layers, parents)
		level = parents
	}
	m.root = level[0]
}

func hashPair(left, right string) string {
	sum := sha256.Sum256([]byte(left + right))
	return hex.EncodeToString(sum[:])
}

// IntegrityWorker periodically rebuilds the digest from the activity log
type IntegrityWorker struct {
	digest   *DigestService
	activity *ActivityService
	logger   *zap.SugaredLogger
}

// NewIntegrityWorker wires a worker to the digest it maintains.
func NewIntegrityWorker(d *DigestService, as *ActivityService, logger *zap.SugaredLogger) *IntegrityWorker {
	return &IntegrityWorker{digest: d, activity: as, logger: logger}
}

// Start rebuilds immediately and then every interval until ctx ends.
func (w *IntegrityWorker) Start(ctx context.Context, interval time.Duration) {
	w.Rebuild(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			w.Rebuild(ctx)
		case <-ctx.Done():
			w.logger.Info("Integrity worker stopped")
			return
		}
	}
}

// Rebuild reloads every activity hash into the digest
func (w *IntegrityWorker) Rebuild(ctx context.Context) {
	w.logger.Debug("Rebuilding activity digest...")

	hashes, err := w.activity.LeafHashes(ctx)
	if err != nil {
		w.logger.Errorw("Activity digest rebuild failed", "error", err)
		return
	}
	w.digest.BuildFromHashes(hashes)
}
