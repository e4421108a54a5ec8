// Package download materializes the parts of resolved artifacts into the
// local repository.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/opencontainers/go-digest"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/malaclypse/internal/domain/entities"
	"github.com/rios0rios0/malaclypse/internal/domain/repositories"
	"github.com/rios0rios0/malaclypse/internal/filelock"
	"github.com/rios0rios0/malaclypse/internal/infrastructure/repositories/localcache"
	"github.com/rios0rios0/malaclypse/internal/metrics"
)

const (
	partialSuffix = ".part.tmp"
	partFileMode  = 0o644

	outcomePresent    = "present"
	outcomeDownloaded = "downloaded"
	outcomeFailed     = "failed"
)

// Repositories finds the repository that resolved a solution.
type Repositories interface {
	Repository(name string) (repositories.ProbeRepository, bool)
}

// Publisher receives materialized solutions; the resolution cache implements it.
type Publisher interface {
	NextGeneration() uint64
	Publish(solution *entities.Solution) *entities.Solution
}

// Manager downloads parts with a bounded worker pool.
type Manager struct {
	repositories Repositories
	publisher    Publisher
	root         string
	metrics      *metrics.Metrics
}

// NewManager creates a manager writing under the local repository root.
func NewManager(repos Repositories, publisher Publisher, root string, m *metrics.Metrics) *Manager {
	return &Manager{repositories: repos, publisher: publisher, root: root, metrics: m}
}

// artifactJob groups the parts of one coordinate and the nodes sharing it.
type artifactJob struct {
	solution *entities.Solution
	specs    []entities.PartSpec
	nodes    []*entities.GraphNode

	mu       sync.Mutex
	parts    []entities.Part
	failures []partFailure
}

type partFailure struct {
	spec      entities.PartSpec
	err       error
	cancelled bool
}

func (it *artifactJob) fail(spec entities.PartSpec, err error, cancelled bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.failures = append(it.failures, partFailure{spec: spec, err: err, cancelled: cancelled})
}

// Materialize makes sure every live node has its parts in the local
// repository. Missing required parts mark the nodes PartUnavailable;
// missing optional parts only leave a warning note. Once ctx is done no new
// part is started and the nodes waiting on one are marked Cancelled, while
// transfers already running are allowed to land.
func (it *Manager) Materialize(ctx context.Context, rc entities.ResolutionContext, graph *entities.Graph) error {
	jobs := it.plan(rc, graph)
	if len(jobs) == 0 {
		return nil
	}

	retry := NewRetryPolicy(rc.Retry)
	pool := NewPool(rc.Workers, rc.QueueSize)
	pool.Start(ctx)

	var submitErr error
	for _, job := range jobs {
		for _, spec := range job.specs {
			if submitErr == nil {
				submitErr = pool.Submit(ctx, func(taskCtx context.Context) {
					it.materializePart(taskCtx, rc, retry, job, spec)
				})
				if submitErr == nil {
					continue
				}
			}
			// never queued
			job.fail(spec, submitErr, true)
		}
	}
	pool.Close()

	cancelled := false
	for _, job := range jobs {
		cancelled = it.settle(job) || cancelled
	}
	if cancelled {
		return fmt.Errorf("%w: %w", entities.ErrCancelled, context.Cause(ctx))
	}
	return nil
}

// plan collects one job per distinct coordinate and binary spec, in graph order.
func (it *Manager) plan(rc entities.ResolutionContext, graph *entities.Graph) []*artifactJob {
	byKey := make(map[string]*artifactJob)
	var jobs []*artifactJob
	for _, node := range graph.Live() {
		specs := rc.PartSpecs(node.Dependency)
		key := node.Solution.Coordinate.Key() + "|" + specs[0].FileName(node.Solution.Coordinate)
		if job, ok := byKey[key]; ok {
			job.nodes = append(job.nodes, node)
			continue
		}
		job := &artifactJob{solution: node.Solution, specs: specs, nodes: []*entities.GraphNode{node}}
		byKey[key] = job
		jobs = append(jobs, job)
	}
	return jobs
}

func (it *Manager) materializePart(
	ctx context.Context,
	rc entities.ResolutionContext,
	retry RetryPolicy,
	job *artifactJob,
	spec entities.PartSpec,
) {
	if err := ctx.Err(); err != nil {
		job.fail(spec, err, true)
		return
	}
	part, err := it.fetchPart(ctx, rc, retry, job.solution, spec)
	if err != nil {
		it.metrics.DownloadsTotal.WithLabelValues(outcomeFailed).Inc()
		job.fail(spec, err, ctx.Err() != nil)
		return
	}
	job.mu.Lock()
	job.parts = append(job.parts, part)
	job.mu.Unlock()
}

// fetchPart skips parts already present, otherwise downloads under the path
// lock into a temp file that is renamed once verified. An attempt that has
// started runs to completion even if ctx is cancelled meanwhile; only the
// lock wait and further retries stop with ctx.
func (it *Manager) fetchPart(
	ctx context.Context,
	rc entities.ResolutionContext,
	retry RetryPolicy,
	solution *entities.Solution,
	spec entities.PartSpec,
) (entities.Part, error) {
	coordinate := solution.Coordinate
	path := entities.LocalPartPath(it.root, coordinate, spec)
	part := entities.Part{Spec: spec, LocalPath: path, Repository: solution.Repository}

	if present, err := it.present(path, &part); present || err != nil {
		return part, err
	}

	lock, err := filelock.Acquire(ctx, path)
	if err != nil {
		return part, err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			logger.Warnf("[download] %v", releaseErr)
		}
	}()

	// another process may have completed it while we waited for the lock
	if present, presentErr := it.present(path, &part); present || presentErr != nil {
		return part, presentErr
	}

	probe, ok := it.repositories.Repository(solution.Repository)
	if !ok {
		return part, fmt.Errorf("repository %q of %s is not in the chain", solution.Repository, coordinate)
	}

	operation := fmt.Sprintf("download of %s from %s", spec.FileName(coordinate), solution.Repository)
	detached := context.WithoutCancel(ctx)
	err = retry.Execute(ctx, operation, func() error {
		attemptCtx := detached
		if rc.DownloadTimeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(detached, rc.DownloadTimeout)
			defer cancel()
		}
		checksum, writeErr := it.download(attemptCtx, probe, coordinate, spec, path)
		part.Checksum = checksum
		return writeErr
	})
	if err != nil {
		return part, err
	}

	it.metrics.DownloadsTotal.WithLabelValues(outcomeDownloaded).Inc()
	logger.Debugf("[download] Stored %s", path)
	return part, nil
}

func (it *Manager) present(path string, part *entities.Part) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	checksum, err := localcache.ReadDigestFile(path + ".sha256")
	if err != nil {
		logger.Warnf("[download] Ignoring unreadable checksum of %s: %v", path, err)
	}
	part.Checksum = checksum
	it.metrics.DownloadsTotal.WithLabelValues(outcomePresent).Inc()
	return true, nil
}

// download writes one attempt to the temp file, verifies it against the
// published checksum, and renames it into place.
func (it *Manager) download(
	ctx context.Context,
	probe repositories.ProbeRepository,
	coordinate entities.Coordinate,
	spec entities.PartSpec,
	path string,
) (digest.Digest, error) {
	expected, err := probe.Checksum(ctx, coordinate, spec)
	if err != nil {
		return "", fmt.Errorf("failed to read checksum: %w", err)
	}

	body, err := probe.Fetch(ctx, coordinate, spec)
	if err != nil {
		return "", err
	}
	defer body.Close()

	tempPath := path + partialSuffix
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, partFileMode)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", tempPath, err)
	}

	algorithm := digest.Canonical
	if expected != "" {
		algorithm = expected.Algorithm()
	}
	digester := algorithm.Digester()

	written, copyErr := io.Copy(io.MultiWriter(file, digester.Hash()), body)
	closeErr := file.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to write %s: %w", tempPath, errors.Join(copyErr, closeErr))
	}

	actual := digester.Digest()
	if expected != "" && actual != expected {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("%w: %s expected %s, got %s", entities.ErrChecksumMismatch, spec.FileName(coordinate), expected, actual)
	}

	if renameErr := os.Rename(tempPath, path); renameErr != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to move %s into place: %w", path, renameErr)
	}
	if digestErr := localcache.WriteDigestFile(path, actual); digestErr != nil {
		logger.Warnf("[download] %v", digestErr)
	}
	it.metrics.DownloadedBytes.Add(float64(written))
	return actual, nil
}

// settle records the outcome of a job on its nodes and publishes the
// materialized solution. It reports whether a required part was lost to
// cancellation.
func (it *Manager) settle(job *artifactJob) bool {
	var required []partFailure
	cancelled := true
	for _, failure := range job.failures {
		if failure.spec.Required() {
			required = append(required, failure)
			cancelled = cancelled && failure.cancelled
			continue
		}
		logger.Warnf("[download] Optional %s part of %s unavailable: %v",
			failure.spec.Kind, job.solution.Coordinate, failure.err)
		job.nodes[0].Note(&entities.Reason{
			Kind:    entities.ReasonPartUnavailable,
			Message: fmt.Sprintf("optional %s part", failure.spec.Kind),
			Cause:   failure.err,
		})
	}

	if len(required) > 0 {
		errs := make([]error, len(required))
		for i, failure := range required {
			errs[i] = fmt.Errorf("%s part: %w", failure.spec.Kind, failure.err)
		}
		reason := &entities.Reason{
			Kind:         entities.ReasonPartUnavailable,
			Message:      job.solution.Coordinate.String(),
			Repositories: []string{job.solution.Repository},
			Cause:        errors.Join(errs...),
		}
		if cancelled {
			reason.Kind = entities.ReasonCancelled
			reason.Repositories = nil
			logger.Warnf("[download] %v", reason)
		} else {
			logger.Errorf("[download] %v", reason)
		}
		for _, node := range job.nodes {
			node.Fail(reason)
		}
		return cancelled
	}

	materialized := it.publisher.Publish(job.solution.WithParts(orderParts(job.specs, job.parts), it.publisher.NextGeneration()))
	for _, node := range job.nodes {
		node.Solution = materialized
	}
	return false
}

// orderParts sorts the parts in the order they were requested so results
// do not depend on which worker finished first.
func orderParts(specs []entities.PartSpec, parts []entities.Part) []entities.Part {
	ordered := make([]entities.Part, 0, len(parts))
	for _, spec := range specs {
		for _, part := range parts {
			if part.Spec == spec {
				ordered = append(ordered, part)
				break
			}
		}
	}
	return ordered
}
