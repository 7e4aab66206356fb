package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anexotools/anexocon/internal/config"
	"github.com/anexotools/anexocon/internal/registry"
	"github.com/anexotools/anexocon/internal/resolve"
	"github.com/anexotools/anexocon/internal/testutil"
	"github.com/anexotools/anexocon/internal/transfer"
)

// fakeClient serves a canned remote tree. Directory contents are keyed
// by absolute path; downloadable file bodies by absolute file path.
type fakeClient struct {
	cwd      string
	dirs     map[string][]transfer.Item
	bodies   map[string]string
	listErr  map[string]error
	searchFn func(query string) (*transfer.SearchResult, error)
	closed   bool
}

func (f *fakeClient) resolve(p string) string {
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Join(f.cwd, p)
}

func (f *fakeClient) ChangeDir(_ context.Context, dir string) error {
	abs := f.resolve(dir)
	if _, ok := f.dirs[abs]; !ok {
		return fmt.Errorf("no such directory: %s", abs)
	}
	f.cwd = abs
	return nil
}

func (f *fakeClient) CurrentDir() string { return f.cwd }

func (f *fakeClient) List(_ context.Context) (*transfer.Listing, error) {
	if err, ok := f.listErr[f.cwd]; ok {
		return nil, err
	}
	items, ok := f.dirs[f.cwd]
	if !ok {
		return nil, fmt.Errorf("no such directory: %s", f.cwd)
	}
	return &transfer.Listing{Path: f.cwd, Items: items}, nil
}

func (f *fakeClient) Download(_ context.Context, remoteName, localPath string) error {
	body, ok := f.bodies[f.resolve(remoteName)]
	if !ok {
		return fmt.Errorf("no such file: %s", remoteName)
	}
	return os.WriteFile(localPath, []byte(body), 0o644)
}

func (f *fakeClient) Search(_ context.Context, query string, _ transfer.SearchOptions) (*transfer.SearchResult, error) {
	if f.searchFn != nil {
		return f.searchFn(query)
	}
	return &transfer.SearchResult{}, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

var _ transfer.Client = (*fakeClient)(nil)

const validAnexoCSV = `,
,ANEXO 1 PACTADO
,
SEDE,MUNICIPIO,CODIGO DE HABILITACION,NUMERO,NOMBRE
,Bogotá,HAB001,1,Sede Norte
,
ITEM,CODIGO CUPS,CUPS HOMOLOGO,DESCRIPCION,TARIFA,MANUAL,% MANUAL,OBSERVACIONES
1,CUP001,,Consulta general,50000,Manual A,1.0,
2,CUP002,,Radiografia,80000,Manual A,1.0,
`

const validMinutesCSV = `,
,ANEXO 1 PACTADO
,
SEDE,MUNICIPIO,CODIGO DE HABILITACION,NUMERO,NOMBRE
,Bogotá,HAB001,1,Sede Norte
,
ITEM,CODIGO CUPS,CUPS HOMOLOGO,DESCRIPCION,TARIFA,MANUAL,% MANUAL,OBSERVACIONES
1,CUP009,,Terapia fisica,30000,Manual B,1.0,
`

const invalidCSV = `,
,algo sin encabezado
a,b,c
`

func dir(name string) transfer.Item  { return transfer.Item{Name: name, IsDir: true} }
func file(name string) transfer.Item { return transfer.Item{Name: name, IsDir: false} }

func testContract() *registry.Contract {
	return &registry.Contract{
		Number:      "123-2024",
		InitialDate: "01/01/2024",
		Amendments:  []registry.Entry{{Number: 2, Date: "15/03/2024"}},
		Minutes:     []registry.Entry{{Number: 1, Date: "20/04/2024"}, {Number: 2, Date: "10/05/2024"}},
	}
}

func testEngine(t *testing.T, client transfer.Client) *Engine {
	t.Helper()
	cfg := &config.Config{
		RemoteRoot: "/CONTRATOS",
		WorkDir:    t.TempDir(),
		OutputDir:  t.TempDir(),
		Workers:    1,
	}
	dialer := func(context.Context) (transfer.Client, error) { return client, nil }
	e := New(cfg, dialer, nil, testutil.NewTestLogger(t))
	e.now = func() time.Time { return time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC) }
	return e
}

func fullTree() *fakeClient {
	root := "/CONTRATOS"
	folder := root + "/PROVEEDOR 123-2024"
	tariffs := folder + "/" + tariffsFolder
	minutes := tariffs + "/" + minutesFolder
	return &fakeClient{
		cwd: "/",
		dirs: map[string][]transfer.Item{
			"/":     {dir("CONTRATOS")},
			root:    {dir("PROVEEDOR 123-2024"), dir("OTRO PROVEEDOR 999-2023")},
			folder:  {dir(tariffsFolder)},
			tariffs: {dir(minutesFolder), file("ANEXO 1 OTROSI 2.csv"), file("ANEXO 1.csv")},
			minutes: {file("ANEXO 1 ACTA 1.csv")},
		},
		bodies: map[string]string{
			tariffs + "/ANEXO 1 OTROSI 2.csv": validAnexoCSV,
			tariffs + "/ANEXO 1.csv":          validAnexoCSV,
			minutes + "/ANEXO 1 ACTA 1.csv":   validMinutesCSV,
		},
	}
}

func TestProcessContractFullRun(t *testing.T) {
	client := fullTree()
	e := testEngine(t, client)

	res := e.ProcessContract(context.Background(), client, testContract())
	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.Documents)
	require.Len(t, res.Records, 3)

	// Base document is the highest amendment, then the acta.
	assert.Equal(t, "Otrosí 2", res.Records[0].Origin)
	assert.Equal(t, "15/03/2024", res.Records[0].AgreementDate)
	assert.Equal(t, "CUP001", res.Records[0].CUPS)
	assert.Equal(t, "HAB001-01", res.Records[0].HabilitationCode)
	assert.Equal(t, "Acta 1", res.Records[2].Origin)
	assert.Equal(t, "20/04/2024", res.Records[2].AgreementDate)

	require.NotEmpty(t, res.OutputPath)
	_, err := os.Stat(res.OutputPath)
	require.NoError(t, err)
	assert.Contains(t, res.OutputPath, "CONSOLIDADO_123-2024_20240601_103000.xlsx")

	// Minutes record 2 exists in the registry but no file matched it.
	var gaps []resolve.Alert
	for _, a := range res.Alerts {
		if a.Severity == resolve.SeverityWarning {
			gaps = append(gaps, a)
		}
	}
	require.Len(t, gaps, 1)
	assert.Equal(t, "No ANEXO 1 for minutes record 2 – Contract 123-2024", gaps[0].Message)
}

func TestProcessContractFolderMissing(t *testing.T) {
	client := &fakeClient{
		cwd: "/",
		dirs: map[string][]transfer.Item{
			"/":          {dir("CONTRATOS")},
			"/CONTRATOS": {dir("PROVEEDOR 999-2023")},
		},
	}
	e := testEngine(t, client)

	res := e.ProcessContract(context.Background(), client, testContract())
	require.Error(t, res.Err)
	assert.Empty(t, res.Records)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, resolve.SeverityError, res.Alerts[0].Severity)
	assert.Equal(t, msgNoContractFolder, res.Alerts[0].Message)
}

// A contract folder nested below the root is still found through the
// bounded recursive search.
func TestProcessContractNestedFolderViaSearch(t *testing.T) {
	client := fullTree()
	nested := "/CONTRATOS/ZONA NORTE/PROVEEDOR 123-2024"
	client.dirs["/CONTRATOS"] = []transfer.Item{dir("ZONA NORTE")}
	client.dirs["/CONTRATOS/ZONA NORTE"] = []transfer.Item{dir("PROVEEDOR 123-2024")}
	client.dirs[nested] = []transfer.Item{dir(tariffsFolder)}
	client.dirs[nested+"/"+tariffsFolder] = []transfer.Item{file("ANEXO 1.csv")}
	client.bodies[nested+"/"+tariffsFolder+"/ANEXO 1.csv"] = validAnexoCSV
	client.searchFn = func(query string) (*transfer.SearchResult, error) {
		return &transfer.SearchResult{
			Matches: []transfer.Match{{Name: "PROVEEDOR " + query, Path: nested, IsDir: true}},
		}, nil
	}
	e := testEngine(t, client)

	res := e.ProcessContract(context.Background(), client, testContract())
	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.Documents)
	assert.Len(t, res.Records, 2)
}

func TestProcessContractNoTariffsFolder(t *testing.T) {
	client := &fakeClient{
		cwd: "/",
		dirs: map[string][]transfer.Item{
			"/":                             {dir("CONTRATOS")},
			"/CONTRATOS":                    {dir("PROVEEDOR 123-2024")},
			"/CONTRATOS/PROVEEDOR 123-2024": {file("notas.txt")},
		},
	}
	e := testEngine(t, client)

	res := e.ProcessContract(context.Background(), client, testContract())
	require.Error(t, res.Err)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, msgNoTariffsFolder, res.Alerts[0].Message)
}

// Listing failures inside an already-opened folder abort the contract
// and leave an error-level alert behind.
func TestProcessContractListFailures(t *testing.T) {
	tariffs := "/CONTRATOS/PROVEEDOR 123-2024/" + tariffsFolder

	t.Run("tariffs folder", func(t *testing.T) {
		client := fullTree()
		client.listErr = map[string]error{tariffs: errors.New("connection reset")}
		e := testEngine(t, client)

		res := e.ProcessContract(context.Background(), client, testContract())
		require.Error(t, res.Err)
		assert.Empty(t, res.Records)
		require.Len(t, res.Alerts, 1)
		assert.Equal(t, resolve.SeverityError, res.Alerts[0].Severity)
		assert.Equal(t, "Could not list TARIFAS folder", res.Alerts[0].Message)
	})

	t.Run("minutes folder", func(t *testing.T) {
		client := fullTree()
		client.listErr = map[string]error{tariffs + "/" + minutesFolder: errors.New("connection reset")}
		e := testEngine(t, client)

		res := e.ProcessContract(context.Background(), client, testContract())
		require.Error(t, res.Err)

		var messages []string
		for _, a := range res.Alerts {
			if a.Severity == resolve.SeverityError {
				messages = append(messages, a.Message)
			}
		}
		assert.Contains(t, messages, "Could not list negotiation-minutes folder")
	})
}

// A tariff file that fails validation is skipped with a warning; the
// contract still consolidates whatever else extracted.
func TestProcessContractInvalidBaseKeepsMinutes(t *testing.T) {
	client := fullTree()
	client.bodies["/CONTRATOS/PROVEEDOR 123-2024/TARIFAS/ANEXO 1 OTROSI 2.csv"] = invalidCSV
	e := testEngine(t, client)

	res := e.ProcessContract(context.Background(), client, testContract())
	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.Documents)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Acta 1", res.Records[0].Origin)

	var reasons []string
	for _, a := range res.Alerts {
		reasons = append(reasons, a.Message)
	}
	assert.Contains(t, reasons, "No anexo 1 in expected format: ANEXO 1 OTROSI 2.csv (falta encabezado POSITIVA)")
	assert.Contains(t, reasons, "Minutes processed without a base document; no recency filter applied")
}

// Without a minutes subfolder the contract consolidates the base alone
// and no gap detection runs.
func TestProcessContractNoMinutesFolder(t *testing.T) {
	client := fullTree()
	tariffs := "/CONTRATOS/PROVEEDOR 123-2024/" + tariffsFolder
	client.dirs[tariffs] = []transfer.Item{file("ANEXO 1 OTROSI 2.csv"), file("ANEXO 1.csv")}
	delete(client.dirs, tariffs+"/"+minutesFolder)
	e := testEngine(t, client)

	res := e.ProcessContract(context.Background(), client, testContract())
	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.Documents)
	require.Len(t, res.Records, 2)
	assert.Empty(t, res.Alerts)
}

func TestProcessContractCleansWorkDir(t *testing.T) {
	client := fullTree()
	e := testEngine(t, client)

	res := e.ProcessContract(context.Background(), client, testContract())
	require.NoError(t, res.Err)

	entries, err := os.ReadDir(e.cfg.WorkDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessContractKeepDownloads(t *testing.T) {
	client := fullTree()
	e := testEngine(t, client)
	e.cfg.KeepDownloads = true

	res := e.ProcessContract(context.Background(), client, testContract())
	require.NoError(t, res.Err)

	entries, err := os.ReadDir(e.cfg.WorkDir + "/123-2024")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRunBatchSequential(t *testing.T) {
	client := fullTree()
	e := testEngine(t, client)

	contracts := []*registry.Contract{testContract(), {Number: "999-2023"}}
	results, err := e.RunBatch(context.Background(), contracts)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Succeeded())
	// The second contract's folder exists but has no TARIFAS folder.
	assert.False(t, results[1].Succeeded())
	assert.True(t, client.closed)
}

func TestRunBatchEmpty(t *testing.T) {
	e := testEngine(t, &fakeClient{})
	results, err := e.RunBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestRunBatchDialFailure(t *testing.T) {
	cfg := &config.Config{WorkDir: t.TempDir(), OutputDir: t.TempDir(), Workers: 1}
	dialer := func(context.Context) (transfer.Client, error) {
		return nil, errors.New("connection refused")
	}
	e := New(cfg, dialer, nil, nil)

	_, err := e.RunBatch(context.Background(), []*registry.Contract{{Number: "1-2024"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to dial")
}

func TestProcessFile(t *testing.T) {
	local := t.TempDir() + "/ANEXO 1.csv"
	require.NoError(t, os.WriteFile(local, []byte(validAnexoCSV), 0o644))

	e := testEngine(t, &fakeClient{})
	res, err := e.ProcessFile(context.Background(), local)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "Inicial", res.Records[0].Origin)
	_, statErr := os.Stat(res.OutputPath)
	require.NoError(t, statErr)
}

func TestProcessFileInvalid(t *testing.T) {
	local := t.TempDir() + "/plano.csv"
	require.NoError(t, os.WriteFile(local, []byte(invalidCSV), 0o644))

	e := testEngine(t, &fakeClient{})
	res, err := e.ProcessFile(context.Background(), local)
	require.Error(t, err)
	require.Len(t, res.Alerts, 1)
	assert.Contains(t, res.Alerts[0].Message, "No anexo 1 in expected format")
}

func TestLocalName(t *testing.T) {
	now := time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)
	sel := resolve.Selection{Filename: "ANEXO 1 OTROSI 2.XLSB", Kind: resolve.KindAmendment, Number: 2}
	assert.Equal(t, "123-2024_amendment_2_20240601_103000.xlsb", localName("123-2024", sel, now))

	sel = resolve.Selection{Filename: "ANEXO 1.xlsx", Kind: resolve.KindInitial}
	assert.Equal(t, "123-2024_initial_0_20240601_103000.xlsx", localName("123-2024", sel, now))
}
