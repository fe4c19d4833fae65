package kvdb

const (
	// RecordsBucket holds the full JSON record of every indexed document, keyed by document ID.
	RecordsBucket = "records"
)

var buckets = []string{RecordsBucket}

type DB interface {
	Set(bucket string, key string, value string) error
	Get(bucket string, key string) (string, error)
	GetMany(bucket string, keys []string) (map[string]string, error)
	Delete(bucket string, key string) error
	GetAllKeys(bucket string) ([]string, error)
	Close() error
}
