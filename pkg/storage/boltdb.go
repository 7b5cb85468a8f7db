package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/hodei/pipelines/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketJobs       = []byte("jobs")
	bucketQueues     = []byte("queues")
	bucketQueuedJobs = []byte("queued_jobs")
	bucketPools      = []byte("pools")
	bucketQuotas     = []byte("quotas")
	bucketUsage      = []byte("usage")
	bucketViolations = []byte("violations")
	bucketExecutions = []byte("executions")
	bucketArtifacts  = []byte("artifacts")
)

// BoltStore implements Store using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "hodei.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketJobs,
			bucketQueues,
			bucketQueuedJobs,
			bucketPools,
			bucketQuotas,
			bucketUsage,
			bucketViolations,
			bucketExecutions,
			bucketArtifacts,
		}

		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) put(bucket []byte, key string, v interface{}) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

func (s *BoltStore) get(bucket []byte, key string, v interface{}) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		data := b.Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%s %s: %w", bucket, key, types.ErrNotFound)
		}
		return json.Unmarshal(data, v)
	})
}

func (s *BoltStore) delete(bucket []byte, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

// Job operations

func (s *BoltStore) CreateJob(job *types.Job) error {
	return s.put(bucketJobs, job.ID, job)
}

func (s *BoltStore) GetJob(id string) (*types.Job, error) {
	var job types.Job
	if err := s.get(bucketJobs, id, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *BoltStore) ListJobs() ([]*types.Job, error) {
	var jobs []*types.Job
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketJobs).ForEach(func(k, v []byte) error {
			var job types.Job
			if err := json.Unmarshal(v, &job); err != nil {
				return err
			}
			jobs = append(jobs, &job)
			return nil
		})
	})
	return jobs, err
}

func (s *BoltStore) ListJobsByStatus(status types.JobStatus) ([]*types.Job, error) {
	jobs, err := s.ListJobs()
	if err != nil {
		return nil, err
	}

	var filtered []*types.Job
	for _, job := range jobs {
		if job.Status == status {
			filtered = append(filtered, job)
		}
	}
	return filtered, nil
}

func (s *BoltStore) UpdateJob(job *types.Job) error {
	return s.CreateJob(job) // Upsert
}

func (s *BoltStore) DeleteJob(id string) error {
	return s.delete(bucketJobs, id)
}

// Queue operations

func (s *BoltStore) CreateQueue(queue *types.JobQueue) error {
	return s.put(bucketQueues, queue.ID, queue)
}

func (s *BoltStore) GetQueue(id string) (*types.JobQueue, error) {
	var queue types.JobQueue
	if err := s.get(bucketQueues, id, &queue); err != nil {
		return nil, err
	}
	return &queue, nil
}

func (s *BoltStore) ListQueues() ([]*types.JobQueue, error) {
	var queues []*types.JobQueue
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketQueues).ForEach(func(k, v []byte) error {
			var queue types.JobQueue
			if err := json.Unmarshal(v, &queue); err != nil {
				return err
			}
			queues = append(queues, &queue)
			return nil
		})
	})
	return queues, err
}

func (s *BoltStore) UpdateQueue(queue *types.JobQueue) error {
	return s.CreateQueue(queue)
}

func (s *BoltStore) DeleteQueue(id string) error {
	return s.delete(bucketQueues, id)
}

// Queued job operations

func (s *BoltStore) CreateQueuedJob(qj *types.QueuedJob) error {
	return s.put(bucketQueuedJobs, qj.Job.ID, qj)
}

func (s *BoltStore) GetQueuedJob(jobID string) (*types.QueuedJob, error) {
	var qj types.QueuedJob
	if err := s.get(bucketQueuedJobs, jobID, &qj); err != nil {
		return nil, err
	}
	return &qj, nil
}

func (s *BoltStore) ListQueuedJobs() ([]*types.QueuedJob, error) {
	var queued []*types.QueuedJob
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketQueuedJobs).ForEach(func(k, v []byte) error {
			var qj types.QueuedJob
			if err := json.Unmarshal(v, &qj); err != nil {
				return err
			}
			queued = append(queued, &qj)
			return nil
		})
	})
	return queued, err
}

func (s *BoltStore) ListQueuedJobsByQueue(queueID string) ([]*types.QueuedJob, error) {
	queued, err := s.ListQueuedJobs()
	if err != nil {
		return nil, err
	}

	var filtered []*types.QueuedJob
	for _, qj := range queued {
		if qj.QueueID == queueID {
			filtered = append(filtered, qj)
		}
	}
	return filtered, nil
}

func (s *BoltStore) UpdateQueuedJob(qj *types.QueuedJob) error {
	return s.CreateQueuedJob(qj)
}

func (s *BoltStore) DeleteQueuedJob(jobID string) error {
	return s.delete(bucketQueuedJobs, jobID)
}

// Pool operations

func (s *BoltStore) CreatePool(pool *types.ResourcePool) error {
	return s.put(bucketPools, pool.ID, pool)
}

func (s *BoltStore) GetPool(id string) (*types.ResourcePool, error) {
	var pool types.ResourcePool
	if err := s.get(bucketPools, id, &pool); err != nil {
		return nil, err
	}
	return &pool, nil
}

func (s *BoltStore) ListPools() ([]*types.ResourcePool, error) {
	var pools []*types.ResourcePool
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPools).ForEach(func(k, v []byte) error {
			var pool types.ResourcePool
			if err := json.Unmarshal(v, &pool); err != nil {
				return err
			}
			pools = append(pools, &pool)
			return nil
		})
	})
	return pools, err
}

func (s *BoltStore) UpdatePool(pool *types.ResourcePool) error {
	return s.CreatePool(pool)
}

func (s *BoltStore) DeletePool(id string) error {
	return s.delete(bucketPools, id)
}

// Quota operations

func (s *BoltStore) CreateQuota(quota *types.ResourceQuota) error {
	return s.put(bucketQuotas, quota.ID, quota)
}

func (s *BoltStore) GetQuota(id string) (*types.ResourceQuota, error) {
	var quota types.ResourceQuota
	if err := s.get(bucketQuotas, id, &quota); err != nil {
		return nil, err
	}
	return &quota, nil
}

func (s *BoltStore) GetQuotaByPool(poolID string) (*types.ResourceQuota, error) {
	var found *types.ResourceQuota
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketQuotas).ForEach(func(k, v []byte) error {
			var quota types.ResourceQuota
			if err := json.Unmarshal(v, &quota); err != nil {
				return err
			}
			if quota.PoolID == poolID {
				found = &quota
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("quota for pool %s: %w", poolID, types.ErrNotFound)
	}
	return found, nil
}

func (s *BoltStore) ListQuotas() ([]*types.ResourceQuota, error) {
	var quotas []*types.ResourceQuota
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketQuotas).ForEach(func(k, v []byte) error {
			var quota types.ResourceQuota
			if err := json.Unmarshal(v, &quota); err != nil {
				return err
			}
			quotas = append(quotas, &quota)
			return nil
		})
	})
	return quotas, err
}

func (s *BoltStore) UpdateQuota(quota *types.ResourceQuota) error {
	return s.CreateQuota(quota)
}

func (s *BoltStore) DeleteQuota(id string) error {
	return s.delete(bucketQuotas, id)
}

// Usage operations

func (s *BoltStore) GetUsage(poolID string) (*types.ResourceUsage, error) {
	var usage types.ResourceUsage
	if err := s.get(bucketUsage, poolID, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

func (s *BoltStore) PutUsage(usage *types.ResourceUsage) error {
	return s.put(bucketUsage, usage.PoolID, usage)
}

// Violation operations

func (s *BoltStore) CreateViolation(v *types.QuotaViolation) error {
	return s.put(bucketViolations, v.ID, v)
}

func (s *BoltStore) GetViolation(id string) (*types.QuotaViolation, error) {
	var v types.QuotaViolation
	if err := s.get(bucketViolations, id, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *BoltStore) ListViolations() ([]*types.QuotaViolation, error) {
	var violations []*types.QuotaViolation
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketViolations).ForEach(func(k, v []byte) error {
			var violation types.QuotaViolation
			if err := json.Unmarshal(v, &violation); err != nil {
				return err
			}
			violations = append(violations, &violation)
			return nil
		})
	})
	return violations, err
}

func (s *BoltStore) ListUnresolvedViolations() ([]*types.QuotaViolation, error) {
	violations, err := s.ListViolations()
	if err != nil {
		return nil, err
	}

	var filtered []*types.QuotaViolation
	for _, v := range violations {
		if !v.Resolved {
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}

func (s *BoltStore) UpdateViolation(v *types.QuotaViolation) error {
	return s.CreateViolation(v)
}

// Execution operations

func (s *BoltStore) CreateExecution(e *types.Execution) error {
	return s.put(bucketExecutions, e.ID, e)
}

func (s *BoltStore) GetExecution(id string) (*types.Execution, error) {
	var e types.Execution
	if err := s.get(bucketExecutions, id, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *BoltStore) ListExecutionsByJob(jobID string) ([]*types.Execution, error) {
	var executions []*types.Execution
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketExecutions).ForEach(func(k, v []byte) error {
			var e types.Execution
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			if e.JobID == jobID {
				executions = append(executions, &e)
			}
			return nil
		})
	})
	return executions, err
}

func (s *BoltStore) UpdateExecution(e *types.Execution) error {
	return s.CreateExecution(e)
}

// Artifact operations

func (s *BoltStore) CreateArtifact(a *types.Artifact) error {
	return s.put(bucketArtifacts, a.ID, a)
}

func (s *BoltStore) GetArtifact(id string) (*types.Artifact, error) {
	var a types.Artifact
	if err := s.get(bucketArtifacts, id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *BoltStore) ListArtifacts() ([]*types.Artifact, error) {
	var artifacts []*types.Artifact
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketArtifacts).ForEach(func(k, v []byte) error {
			var a types.Artifact
			if err := json.Unmarshal(v, &a); err != nil {
				return err
			}
			artifacts = append(artifacts, &a)
			return nil
		})
	})
	return artifacts, err
}
