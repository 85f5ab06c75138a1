package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Aduana-api/pkg/config"
	"github.com/jhoicas/Aduana-api/pkg/logger"
)

var (
	verbose bool

	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Importación batch y conciliación de Declarações de Importação (Siscomex)",
	Long: `importer extrae, decodifica y persiste Declarações de Importação en lote.

Cada documento se procesa en su propia transacción: un documento inválido se
registra y se cuenta, pero no detiene el lote. El código de salida es 1 si
algún documento falló.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("cargar configuración: %w", err)
		}
		level := cfg.Log.Level
		if verbose {
			level = "debug"
		}
		log = logger.New(logger.Config{Env: cfg.App.Env, Level: level, Output: cmd.ErrOrStderr()})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log en nivel debug")
	rootCmd.AddCommand(importCmd, compareCmd, migrateCmd)
}
