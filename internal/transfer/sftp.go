package transfer

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"time"

	"github.com/pkg/sftp"
	"github.com/sethvargo/go-retry"
	"golang.org/x/crypto/ssh"
)

// SFTPConfig holds the connection settings for the remote store.
type SFTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
}

const (
	dialTimeout  = 30 * time.Second
	dialAttempts = 3
)

// SFTPClient is the SFTP-backed remote store. The SFTP protocol has no
// server-side working directory, so the client tracks one itself and
// resolves relative names against it.
type SFTPClient struct {
	conn *ssh.Client
	sftp *sftp.Client
	cwd  string
}

// DialSFTP opens an SFTP session, retrying the dial with exponential
// backoff; transient network failures on the government gateway are
// routine.
func DialSFTP(ctx context.Context, cfg SFTPConfig) (*SFTPClient, error) {
	addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	sshCfg := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // the gateway rotates host keys
		Timeout:         dialTimeout,
	}

	var conn *ssh.Client
	backoff := retry.WithMaxRetries(dialAttempts-1, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var dialErr error
		conn, dialErr = ssh.Dial("tcp", addr, sshCfg)
		if dialErr != nil {
			return retry.RetryableError(dialErr)
		}
		return nil
	})
	if err != nil {
		return nil, &TransferError{Op: "dial", Path: addr, Err: err}
	}

	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, &TransferError{Op: "open sftp", Path: addr, Err: err}
	}

	cwd, err := client.Getwd()
	if err != nil || cwd == "" {
		cwd = "/"
	}
	return &SFTPClient{conn: conn, sftp: client, cwd: cwd}, nil
}

// CurrentDir reports the tracked working directory.
func (c *SFTPClient) CurrentDir() string { return c.cwd }

// List returns the contents of the current directory in canonical
// order.
func (c *SFTPClient) List(ctx context.Context) (*Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransferError{Op: "list", Path: c.cwd, Err: err}
	}
	entries, err := c.sftp.ReadDir(c.cwd)
	if err != nil {
		return nil, &TransferError{Op: "list", Path: c.cwd, Err: err}
	}
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, Item{
			Name:    e.Name(),
			IsDir:   e.IsDir(),
			Size:    e.Size(),
			ModTime: e.ModTime(),
		})
	}
	SortItems(items)
	return &Listing{Path: c.cwd, Items: items}, nil
}

// ChangeDir moves the tracked working directory after verifying the
// target exists and is a directory.
func (c *SFTPClient) ChangeDir(ctx context.Context, dir string) error {
	if err := ctx.Err(); err != nil {
		return &TransferError{Op: "chdir", Path: dir, Err: err}
	}
	target := c.resolve(dir)
	st, err := c.sftp.Stat(target)
	if err != nil {
		return &TransferError{Op: "chdir", Path: target, Err: err}
	}
	if !st.IsDir() {
		return &TransferError{Op: "chdir", Path: target, Err: fmt.Errorf("not a directory")}
	}
	c.cwd = target
	return nil
}

// Download copies a remote file to a local path.
func (c *SFTPClient) Download(ctx context.Context, remoteName, localPath string) error {
	if err := ctx.Err(); err != nil {
		return &TransferError{Op: "download", Path: remoteName, Err: err}
	}
	remote := c.resolve(remoteName)
	src, err := c.sftp.Open(remote)
	if err != nil {
		return &TransferError{Op: "download", Path: remote, Err: err}
	}
	defer src.Close()

	dst, err := os.Create(localPath)
	if err != nil {
		return &TransferError{Op: "download", Path: localPath, Err: err}
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return &TransferError{Op: "download", Path: remote, Err: err}
	}
	return nil
}

// Search walks the tree under the current directory.
func (c *SFTPClient) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, &TransferError{Op: "search", Path: c.cwd, Err: err}
	}
	return SearchTree(sftpLister{c.sftp}, c.cwd, query, opts), nil
}

// Close tears down the SFTP channel and the SSH connection.
func (c *SFTPClient) Close() error {
	var first error
	if c.sftp != nil {
		first = c.sftp.Close()
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (c *SFTPClient) resolve(p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(c.cwd, p)
}

type sftpLister struct {
	client *sftp.Client
}

func (l sftpLister) ListDir(pth string) ([]Item, error) {
	entries, err := l.client.ReadDir(pth)
	if err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, Item{Name: e.Name(), IsDir: e.IsDir(), Size: e.Size(), ModTime: e.ModTime()})
	}
	return items, nil
}

var _ Client = (*SFTPClient)(nil)
