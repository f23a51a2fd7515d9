package misc

import (
	"encoding/json"
	"errors"
	"math/big"
	"path/filepath"

	"github.com/boltdb/bolt"
)

var ErrNotFound = errors.New("not found")

func OpenDB(path string, name string) (*bolt.DB, error) {
	return bolt.Open(filepath.Join(path, name+".db"), 0600, nil)
}

// InitBuckets creates every missing bucket in one transaction.
func InitBuckets(db *bolt.DB, names ...string) error {
	return db.Update(func(tx *bolt.Tx) error {
		for _, name := range names {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
}

func InitIndex(tx *bolt.Tx, indexBucket, name string, offset uint64) error {
	b := GetBucket(tx, indexBucket)
	key := []byte(name)
	if len(b.Get(key)) == 0 {
		return b.Put(key, new(big.Int).SetUint64(offset).Bytes())
	}
	return nil
}

func GetBucket(tx *bolt.Tx, bucketName string) *bolt.Bucket {
	return tx.Bucket([]byte(bucketName))
}

// GetTxJson decodes key into val, ErrNotFound when the key is missing.
func GetTxJson(tx *bolt.Tx, bucketName, key string, val interface{}) error {
	v := GetBucket(tx, bucketName).Get([]byte(key))
	if v == nil {
		return ErrNotFound
	}
	return json.Unmarshal(v, val)
}

func PutTxJson(tx *bolt.Tx, bucketName, key string, val interface{}) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return GetBucket(tx, bucketName).Put([]byte(key), b)
}

var one = big.NewInt(1)

// GetNextIndex increments the counter `name` in indexBucket and returns its
// previous value, using the given R/W transaction.
func GetNextIndex(tx *bolt.Tx, indexBucket, name string) (string, error) {
	key := []byte(name)
	// note that using SetBytes is pure bytes not the string rep of the number.
	b := GetBucket(tx, indexBucket)
	n := new(big.Int).SetBytes(b.Get(key))
	return n.String(), b.Put(key, new(big.Int).Add(n, one).Bytes())
}
