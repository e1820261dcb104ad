package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Faultbox/rfsurface/pkg/rfdata"
)

// Fetcher downloads a dataset from the binary data endpoint.
type Fetcher struct {
	BaseURL  string
	MetaFile string
	BinFile  string
	Client   *http.Client
}

// NewFetcher returns a fetcher for baseURL using the default file names.
func NewFetcher(baseURL string) *Fetcher {
	return &Fetcher{
		BaseURL:  baseURL,
		MetaFile: rfdata.MetaFile,
		BinFile:  rfdata.PowerFile,
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch downloads and validates the metadata and the power buffer.
func (f *Fetcher) Fetch(ctx context.Context) (*rfdata.Dataset, error) {
	metaData, err := f.get(ctx, f.MetaFile)
	if err != nil {
		return nil, err
	}
	meta, err := rfdata.ParseMeta(metaData)
	if err != nil {
		return nil, decodeErr("fetch "+f.MetaFile, err)
	}

	power, err := f.get(ctx, f.BinFile)
	if err != nil {
		return nil, err
	}
	ds, err := rfdata.New(*meta, power)
	if err != nil {
		return nil, fetchErr("fetch "+f.BinFile, err)
	}
	return ds, nil
}

func (f *Fetcher) get(ctx context.Context, name string) ([]byte, error) {
	op := "fetch " + name
	u, err := url.JoinPath(f.BaseURL, name)
	if err != nil {
		return nil, inputErr(op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, inputErr(op, err)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fetchErr(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fetchErr(op, fmt.Errorf("unexpected status %s", resp.Status))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fetchErr(op, err)
	}
	return data, nil
}

// Dir is a local dataset directory. It satisfies the same Fetch contract as Fetcher.
type Dir string

// Fetch reads the dataset from disk.
func (d Dir) Fetch(ctx context.Context) (*rfdata.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, fetchErr("load "+string(d), err)
	}
	ds, err := rfdata.Load(string(d))
	if err != nil {
		return nil, fetchErr("load "+string(d), err)
	}
	return ds, nil
}

// Dataset produces the sample dataset. Fetcher and Dir implement it.
type Dataset interface {
	Fetch(ctx context.Context) (*rfdata.Dataset, error)
}

// Locate picks the dataset source: the endpoint when set, otherwise the local directory.
// Empty file names keep the defaults; a non-positive timeout keeps the default timeout.
func Locate(dir, endpoint, metaFile, binFile string, timeout time.Duration) Dataset {
	if endpoint == "" {
		return Dir(dir)
	}
	f := NewFetcher(endpoint)
	if metaFile != "" {
		f.MetaFile = metaFile
	}
	if binFile != "" {
		f.BinFile = binFile
	}
	if timeout > 0 {
		f.Client.Timeout = timeout
	}
	return f
}
