package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/itnotebooks/zip"
	gozip "github.com/to404hanga/pkg404/gotools/zip"
)

var ErrPasswordRequired = errors.New("encrypted entry requires a password")

// Service 压缩包打包与解包
type Service interface {
	// Pack 将 folder 打包为 dest 指定的 zip 文件
	Pack(ctx context.Context, folder, dest string) error
	// Unpack 将 archivePath 解包到 dest 目录
	Unpack(ctx context.Context, archivePath, dest string) error
}

type ZipService struct {
	// maxFileSize 单个条目解压后的最大字节数, 0 表示不限制
	maxFileSize int64
	encrypt     *gozip.EncryptConfig
}

var _ Service = (*ZipService)(nil)

type Option func(*ZipService)

// WithEncryption 打包时加密文件条目, 解包时用同一密码解密
func WithEncryption(cfg gozip.EncryptConfig) Option {
	return func(s *ZipService) {
		if cfg.Password != "" {
			s.encrypt = &cfg
		}
	}
}

func NewZipService(maxFileSize int64, opts ...Option) *ZipService {
	s := &ZipService{maxFileSize: maxFileSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func encryptionMethod(enc string) zip.EncryptionMethod {
	switch enc {
	case gozip.Standard:
		return zip.StandardEncryption
	case gozip.AES128:
		return zip.AES128Encryption
	case gozip.AES192:
		return zip.AES192Encryption
	default:
		return zip.AES256Encryption
	}
}

func (s *ZipService) Pack(ctx context.Context, folder, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("Pack failed at mkdir: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("Pack failed at create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	err = filepath.WalkDir(folder, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(folder, path)
		if err != nil {
			return err
		}
		if rel == "." || !d.Type().IsRegular() && !d.IsDir() {
			return nil
		}
		name := filepath.ToSlash(rel)
		if d.IsDir() {
			_, err = zw.CreateHeader(&zip.FileHeader{Name: name + "/"})
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		header.Name = name
		header.Method = zip.Deflate
		var w io.Writer
		if s.encrypt != nil {
			w, err = zw.Encrypt(header, s.encrypt.Password, encryptionMethod(s.encrypt.Enc))
		} else {
			w, err = zw.CreateHeader(header)
		}
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(w, f)
		return err
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("Pack failed at walk folder: %w", err)
	}
	if err = zw.Close(); err != nil {
		return fmt.Errorf("Pack failed at close writer: %w", err)
	}
	return nil
}

func (s *ZipService) Unpack(ctx context.Context, archivePath, dest string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("Unpack failed at open archive: %w", err)
	}
	defer zr.Close()

	if err = os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("Unpack failed at mkdir: %w", err)
	}
	cleanDest := filepath.Clean(dest) + string(os.PathSeparator)

	for _, f := range zr.File {
		if err = ctx.Err(); err != nil {
			return err
		}
		target := filepath.Join(dest, filepath.FromSlash(f.Name))
		// zip slip
		if !strings.HasPrefix(target+string(os.PathSeparator), cleanDest) {
			return fmt.Errorf("Unpack failed: illegal entry %q", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("Unpack failed at mkdir %s: %w", f.Name, err)
			}
			continue
		}
		if !f.Mode().IsRegular() && f.Mode().Type() != 0 {
			continue
		}
		if f.IsEncrypted() {
			if s.encrypt == nil {
				return fmt.Errorf("Unpack failed at %s: %w", f.Name, ErrPasswordRequired)
			}
			f.SetPassword(s.encrypt.Password)
		}
		if err = s.extract(f, target); err != nil {
			return fmt.Errorf("Unpack failed at extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func (s *ZipService) extract(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	var r io.Reader = rc
	if s.maxFileSize > 0 {
		r = io.LimitReader(rc, s.maxFileSize+1)
	}
	n, err := io.Copy(out, r)
	if err != nil {
		out.Close()
		return err
	}
	if s.maxFileSize > 0 && n > s.maxFileSize {
		out.Close()
		return fmt.Errorf("entry exceeds %d bytes", s.maxFileSize)
	}
	return out.Close()
}
