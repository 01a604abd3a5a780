package ports

// SubjectArtifactUpdated carries {run_id, artifact_path, finished_at} after a
// successful pipeline run so serving processes can reload the artifact.
const SubjectArtifactUpdated = "solatlas.artifact.updated"

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}
