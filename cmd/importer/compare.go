package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jhoicas/Aduana-api/internal/application/reconciliation"
	"github.com/jhoicas/Aduana-api/internal/domain/entity"
	domainrecon "github.com/jhoicas/Aduana-api/internal/domain/reconciliation"
	infrapdf "github.com/jhoicas/Aduana-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Aduana-api/internal/infrastructure/siscomex"
)

var (
	compareDI  string
	comparePDF string
)

var compareCmd = &cobra.Command{
	Use:   "compare [declarada.xml] <teorica.xml>",
	Short: "Compara los tributos declarados contra los teóricos",
	Long: `Con dos archivos compara ambos documentos sin tocar la base de datos.
Con --di compara la DI ya persistida contra el documento teórico.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		extractor := siscomex.NewExtractor(siscomex.Options{ConditionOfSaleFallback: cfg.Ingest.ConditionOfSaleFallback})
		analyzer := domainrecon.NewAnalyzer(decimal.NewFromFloat(cfg.Divergence.ThresholdPct))

		var declaredPath, theoreticalPath string
		switch {
		case compareDI != "" && len(args) == 1:
			theoreticalPath = args[0]
		case compareDI == "" && len(args) == 2:
			declaredPath, theoreticalPath = args[0], args[1]
		default:
			return fmt.Errorf("use <declarada> <teorica> o --di NUMERO <teorica>")
		}

		theoretical, err := extractFile(extractor, theoreticalPath)
		if err != nil {
			return err
		}

		var declared *entity.Declaration
		if declaredPath != "" {
			if declared, err = extractFile(extractor, declaredPath); err != nil {
				return err
			}
		} else {
			if declared, err = loadStored(cmd.Context(), compareDI); err != nil {
				return err
			}
		}

		uc := reconciliation.NewUseCase(analyzer, nil, nil, nil, nil)
		mismatches := uc.Compare(declared, theoretical)
		printMismatches(cmd.OutOrStdout(), declared.Number, analyzer.Threshold(), mismatches)

		if comparePDF != "" {
			data := reconciliation.ReportData{
				Declaration:  declared,
				Mismatches:   mismatches,
				ThresholdPct: analyzer.Threshold(),
				GeneratedAt:  time.Now().UTC(),
			}
			pdf, err := infrapdf.NewMarotoReportGenerator().GenerateDivergenceReport(cmd.Context(), data)
			if err != nil {
				return err
			}
			if err := os.WriteFile(comparePDF, pdf, 0o644); err != nil {
				return fmt.Errorf("escribir %s: %w", comparePDF, err)
			}
			log.Info().Str("file", comparePDF).Int("bytes", len(pdf)).Msg("informe generado")
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareDI, "di", "", "número de la DI persistida a comparar")
	compareCmd.Flags().StringVar(&comparePDF, "pdf", "", "escribe además el informe PDF en este archivo")
}

func extractFile(extractor *siscomex.Extractor, path string) (*entity.Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("leer %s: %w", path, err)
	}
	d, err := extractor.Extract(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

func loadStored(ctx context.Context, number string) (*entity.Declaration, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	d, err := postgres.NewDeclarationRepository(pool).GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("DI %s no encontrada", number)
	}
	return d, nil
}

// printMismatches tabla alineada de divergencias.
func printMismatches(w io.Writer, number string, threshold decimal.Decimal, mismatches []entity.Mismatch) {
	fmt.Fprintf(w, "DI %s  umbral %s%%  divergencias %d\n", number, threshold, len(mismatches))
	if len(mismatches) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ADICIÓN\tTIPO\tTRIBUTO\tDECLARADO\tTEÓRICO\tDIF\tDIF %\t")
	for _, m := range mismatches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			m.AdditionNumber, m.Kind, m.TaxKind,
			m.Declared.StringFixed(2), m.Theoretical.StringFixed(2),
			m.Delta.StringFixed(2), m.DeltaPct.StringFixed(2))
	}
	_ = tw.Flush()
}
