//	@title			Photomaton API
//	@version		1.0
//	@description	Session and asset storage for the photo kiosk: stores captured photos, serves galleries and downloads, renders QR codes.
//
//	@host		localhost:5001
//	@BasePath	/

package main

import (
	"log"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "photomaton",
		Short:         "Photo kiosk session and asset service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCMD(), migrateCMD())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}
