package banner

import (
	"fmt"

	"jurydb/pkg/config"
)

const banner = `
     ██╗██╗   ██╗██████╗ ██╗   ██╗    ██████╗ ██████╗
     ██║██║   ██║██╔══██╗╚██╗ ██╔╝    ██╔══██╗██╔══██╗
     ██║██║   ██║██████╔╝ ╚████╔╝     ██║  ██║██████╔╝
██   ██║██║   ██║██╔══██╗  ╚██╔╝      ██║  ██║██╔══██╗
╚█████╔╝╚██████╔╝██║  ██║   ██║       ██████╔╝██████╔╝
 ╚════╝  ╚═════╝ ╚═╝  ╚═╝   ╚═╝       ╚═════╝ ╚═════╝
`

// Print prints the startup banner using the effective config.
func Print(eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	dbPath := eff.DBPath
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config:   %s\n", src)

	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST   /save-progress         - Upsert a draft/submission record")
	fmt.Println("GET    /save-progress         - Fetch a record (?userAddress&type&id)")
	fmt.Println("GET    /user-progress         - Aggregate progress (?userAddress)")
	fmt.Println("DELETE /user-progress         - Bulk delete a user (?userAddress)")
	fmt.Println("POST   /save-evaluation-plan  - Store the evaluation plan")
	fmt.Println("GET    /save-evaluation-plan  - Fetch the evaluation plan")
	fmt.Println("GET    /comparison-progress   - Composite view (?userAddress&repo)")

	fmt.Println("\n== Production? =================================================")
	be, fe, ad := 0, 0, 0
	if eff.Config != nil {
		be = len(eff.Config.Security.APIKeys.Backend)
		fe = len(eff.Config.Security.APIKeys.Frontend)
		ad = len(eff.Config.Security.APIKeys.Admin)
	}
	fmt.Printf("API keys: backend=%d frontend=%d admin=%d\n", be, fe, ad)
	if be == 0 {
		fmt.Println("No backend API keys configured - every request will be rejected")
	}
}
