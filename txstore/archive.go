package txstore

import (
	"archive/tar"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/ipfs/go-cid"

	"xdao.co/ledgertx/cidutil"
	"xdao.co/ledgertx/storage"
	"xdao.co/ledgertx/transaction"
)

// ArchiveVersion is the schema version written to index.json.
const ArchiveVersion = 1

const (
	archiveDir   = "tx/"
	archiveIndex = "index.json"
)

// Header timestamps are fixed so identical inputs produce identical archives.
var archiveEpoch = time.Unix(0, 0).UTC()

type archiveIndexJSON struct {
	Version int                `json:"version"`
	Entries []archiveIndexItem `json:"entries"`
}

type archiveIndexItem struct {
	CID    string `json:"cid"`
	From   string `json:"from"`
	Tokens int64  `json:"tokens"`
}

// Export writes the transactions named by ids as a tar archive: one
// tx/<cid> entry per transaction in CID order, then index.json. Duplicate ids
// are written once. Every transaction is re-verified before it is written.
func (s *Store) Export(ctx context.Context, w io.Writer, ids []cid.Cid) error {
	uniq := make(map[string]cid.Cid, len(ids))
	for _, id := range ids {
		if !id.Defined() {
			return storage.ErrInvalidCID
		}
		uniq[id.String()] = id
	}
	names := make([]string, 0, len(uniq))
	for k := range uniq {
		names = append(names, k)
	}
	sort.Strings(names)

	tw := tar.NewWriter(w)
	idx := archiveIndexJSON{Version: ArchiveVersion, Entries: make([]archiveIndexItem, 0, len(names))}
	for _, name := range names {
		tr, err := s.Get(ctx, uniq[name])
		if err != nil {
			_ = tw.Close()
			return err
		}
		if err := writeEntry(tw, archiveDir+name, tr.Marshal()); err != nil {
			_ = tw.Close()
			return err
		}
		idx.Entries = append(idx.Entries, archiveIndexItem{CID: name, From: tr.From.String(), Tokens: tr.Tokens})
	}

	b, err := json.Marshal(idx)
	if err != nil {
		_ = tw.Close()
		return err
	}
	if err := writeEntry(tw, archiveIndex, append(b, '\n')); err != nil {
		_ = tw.Close()
		return err
	}
	s.logger.Debug("exported archive", "transactions", len(names))
	return tw.Close()
}

// Import reads an archive written by Export and stores every transaction in
// it. An entry whose bytes do not match its name, that does not decode, or
// that fails verification aborts the import; entries stored before the
// failure remain. index.json is informational and ignored.
func (s *Store) Import(ctx context.Context, r io.Reader) ([]cid.Cid, error) {
	tr := tar.NewReader(r)
	seen := map[string]bool{}
	var out []cid.Cid

	for {
		h, err := tr.Next()
		if err == io.EOF {
			s.logger.Debug("imported archive", "transactions", len(out))
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("txstore: read archive: %w", err)
		}
		name := path.Clean(h.Name)
		if h.Typeflag != tar.TypeReg || strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
			return out, fmt.Errorf("txstore: unexpected archive entry %q", h.Name)
		}
		if name == archiveIndex {
			continue
		}
		cidStr, ok := strings.CutPrefix(name, archiveDir)
		if !ok {
			return out, fmt.Errorf("txstore: unknown archive entry %q", h.Name)
		}
		id, err := cid.Decode(cidStr)
		if err != nil || !id.Defined() {
			return out, storage.ErrInvalidCID
		}
		if seen[id.String()] {
			return out, fmt.Errorf("txstore: duplicate archive entry %s", id)
		}
		seen[id.String()] = true

		data, err := io.ReadAll(tr)
		if err != nil {
			return out, fmt.Errorf("txstore: read %s: %w", id, err)
		}
		if !cidutil.Matches(id, data) {
			return out, storage.ErrCIDMismatch
		}
		decoded, err := transaction.Unmarshal(data)
		if err != nil {
			return out, fmt.Errorf("txstore: decode %s: %w", id, err)
		}
		if _, err := s.Put(ctx, decoded); err != nil {
			return out, fmt.Errorf("txstore: import %s: %w", id, err)
		}
		out = append(out, id)
	}
}

func writeEntry(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  archiveEpoch,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatPAX,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := tw.Write(content)
	return err
}
