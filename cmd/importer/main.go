// importer carga lotes de Declarações de Importação (XML o JSON) desde archivos o directorios.
//
// Uso:
//
//	importer import ./entrada/            # todos los .xml/.json del directorio
//	importer import DI_001.xml --dry-run  # extrae y persiste en memoria, sin base de datos
//	importer compare declarada.xml teorica.xml --pdf informe.pdf
//	importer compare --di 2412345678 teorica.xml
//	importer migrate up | down [n] | version
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
