package backup

import (
	"context"
	"fmt"
	"path"

	"github.com/kjk/ledger/log"
	"github.com/melbahja/goph"
	"github.com/pkg/sftp"
)

type SFTPConfig struct {
	User           string
	Host           string
	PrivateKeyPath string
	Dir            string
}

// SFTPTarget uploads archives to a server over ssh
type SFTPTarget struct {
	config SFTPConfig
}

func NewSFTPTarget(config *SFTPConfig) (*SFTPTarget, error) {
	c := config
	if c == nil || c.User == "" || c.Host == "" || c.PrivateKeyPath == "" || c.Dir == "" {
		return nil, fmt.Errorf("must provide user, host, private key path and dir")
	}
	return &SFTPTarget{config: *c}, nil
}

func (t *SFTPTarget) connect() (*goph.Client, *sftp.Client, error) {
	auth, err := goph.Key(t.config.PrivateKeyPath, "")
	if err != nil {
		return nil, nil, fmt.Errorf("goph.Key() failed with '%w'", err)
	}
	client, err := goph.New(t.config.User, t.config.Host, auth)
	if err != nil {
		return nil, nil, fmt.Errorf("goph.New() failed with '%w'", err)
	}
	sc, err := client.NewSftp()
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("client.NewSftp() failed with '%w'", err)
	}
	return client, sc, nil
}

// Put uploads to a temporary name and renames so that a partial upload
// never looks like a complete archive
func (t *SFTPTarget) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	client, sc, err := t.connect()
	if err != nil {
		return err
	}
	defer client.Close()
	defer sc.Close()

	if err = sc.MkdirAll(t.config.Dir); err != nil {
		return fmt.Errorf("sftp.MkdirAll('%s') failed with '%w'", t.config.Dir, err)
	}
	remotePath := path.Join(t.config.Dir, name)
	tmpPath := remotePath + ".tmp"
	f, err := sc.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("sftp.Create('%s') failed with '%w'", tmpPath, err)
	}
	_, err = f.Write(data)
	errClose := f.Close()
	if err == nil {
		err = errClose
	}
	if err != nil {
		log.IfErrf(sc.Remove(tmpPath))
		return fmt.Errorf("writing '%s' failed with '%w'", tmpPath, err)
	}
	if err = sc.Rename(tmpPath, remotePath); err != nil {
		log.IfErrf(sc.Remove(tmpPath))
		return fmt.Errorf("sftp.Rename('%s', '%s') failed with '%w'", tmpPath, remotePath, err)
	}
	return nil
}

func (t *SFTPTarget) String() string {
	return fmt.Sprintf("sftp '%s@%s:%s'", t.config.User, t.config.Host, t.config.Dir)
}
