package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Aduana-api/internal/application/ingest"
	"github.com/jhoicas/Aduana-api/internal/domain"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/memory"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/siscomex"
	"github.com/jhoicas/Aduana-api/pkg/logger"
)

var (
	force   bool
	dryRun  bool
	workers int
)

var importCmd = &cobra.Command{
	Use:   "import <archivo|directorio>...",
	Short: "Importa documentos DI (.xml, .json)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := collectFiles(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("ningún documento .xml/.json en %s", strings.Join(args, ", "))
		}

		uc, cleanup, err := newImportUseCase(cmd.Context())
		if err != nil {
			return err
		}
		defer cleanup()

		n := workers
		if n <= 0 {
			n = cfg.Ingest.Workers
		}
		summary := runBatch(cmd.Context(), uc, files, n, force, log)
		printSummary(cmd.OutOrStdout(), summary)
		if summary.Failed > 0 {
			return fmt.Errorf("%d de %d documentos fallaron", summary.Failed, len(files))
		}
		return nil
	},
}

func init() {
	importCmd.Flags().BoolVar(&force, "force", false, "reimporta documentos ya procesados")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "persiste en memoria, sin base de datos")
	importCmd.Flags().IntVarP(&workers, "workers", "w", 0, "documentos en paralelo (por defecto INGEST_WORKERS)")
}

// newImportUseCase arma el caso de uso contra PostgreSQL o, con --dry-run, contra el almacén en memoria.
func newImportUseCase(ctx context.Context) (*ingest.ImportUseCase, func(), error) {
	extractor := siscomex.NewExtractor(siscomex.Options{ConditionOfSaleFallback: cfg.Ingest.ConditionOfSaleFallback})
	opts := ingest.ImportOptions{MaxDocumentBytes: cfg.Ingest.MaxDocumentBytes}

	if dryRun {
		uc := ingest.NewImportUseCase(extractor,
			ingest.NewUpserter(memory.NewStore()),
			ingest.NewRegistrar(memory.NewProcessedDocumentStore()),
			nil, log, opts)
		return uc, func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.MigrateUp(pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
	}
	uc := ingest.NewImportUseCase(extractor,
		ingest.NewUpserter(postgres.NewTxRunner(pool)),
		ingest.NewRegistrar(postgres.NewProcessedDocumentRepository(pool)),
		nil, log, opts)
	return uc, pool.Close, nil
}

// collectFiles expande directorios (recursivo) a sus .xml/.json, en orden estable y sin repetidos.
func collectFiles(args []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("leer %s: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isDocument(path) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("recorrer %s: %w", arg, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func isDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".json":
		return true
	}
	return false
}

// batchSummary totales del lote.
type batchSummary struct {
	Imported   int64
	Duplicates int64
	Failed     int64
	Additions  int64
	Elapsed    time.Duration
}

// runBatch importa los archivos con a lo sumo n en paralelo. Un fallo no detiene el resto.
func runBatch(ctx context.Context, uc *ingest.ImportUseCase, files []string, n int, force bool, log *logger.Logger) batchSummary {
	start := time.Now()
	var s batchSummary

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n)
	for _, path := range files {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				atomic.AddInt64(&s.Failed, 1)
				log.Error().Err(err).Str("file", path).Msg("no se pudo leer el archivo")
				return nil
			}
			res, err := uc.Import(gctx, ingest.ImportRequest{Filename: filepath.Base(path), Data: data, Force: force})
			switch {
			case err == nil:
				atomic.AddInt64(&s.Imported, 1)
				atomic.AddInt64(&s.Additions, int64(res.Additions))
			case errors.Is(err, domain.ErrDuplicate):
				atomic.AddInt64(&s.Duplicates, 1)
			default:
				atomic.AddInt64(&s.Failed, 1)
			}
			// Solo la cancelación del contexto corta el lote.
			return gctx.Err()
		})
	}
	_ = g.Wait()
	s.Elapsed = time.Since(start)
	return s
}

func printSummary(w io.Writer, s batchSummary) {
	fmt.Fprintf(w, "importados: %d  duplicados: %d  fallidos: %d  adiciones: %d  tiempo: %s\n",
		s.Imported, s.Duplicates, s.Failed, s.Additions, s.Elapsed.Round(time.Millisecond))
}
