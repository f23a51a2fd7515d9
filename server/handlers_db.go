package server

import (
	"archive/tar"
	"compress/gzip"
	"time"

	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
)

// dumpDatabases streams a consistent snapshot of the deal database as a
// tar.gz, taken inside one read transaction.
func dumpDatabases(s *Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			gzw  = gzip.NewWriter(c.Writer)
			tw   = tar.NewWriter(gzw)
			ts   = "dbs-" + time.Now().UTC().Format(`2006-01-02-15-04`)
			name = "data/" + s.Cfg.DBName + ".db"
		)

		defer func() {
			if v := recover(); v != nil {
				s.log.Errorf("panic dumping %s: %T %v", name, v, v)
			}

			tw.Close()
			gzw.Close()
		}()

		c.Header("Content-Type", "application/x-gzip")
		c.Header("Content-Disposition", `attachment; filename="`+ts+`.tar.gz"`)

		s.db.View(func(tx *bolt.Tx) (err error) {
			hdr := &tar.Header{
				Name:    name,
				Mode:    0600,
				Size:    tx.Size(),
				ModTime: time.Now(),
			}

			if err = tw.WriteHeader(hdr); err != nil {
				s.log.WithError(err).Errorf("error dumping %s", name)
				return
			}
			if _, err = tx.WriteTo(tw); err != nil {
				s.log.WithError(err).Errorf("error dumping %s", name)
				return
			}

			return
		})
	}
}
