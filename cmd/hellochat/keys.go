package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dropDatabas3/hellochat/internal/jwt"
	"github.com/dropDatabas3/hellochat/internal/util/atomicwrite"
)

func newKeysCmd() *cobra.Command {
	keysCmd := &cobra.Command{Use: "keys", Short: "Claves Ed25519 de firma de tokens"}

	var outDir string
	var force bool
	genCmd := &cobra.Command{
		Use:   "gen",
		Short: "Genera un par Ed25519 (sk.pem PKCS#8, pk.pem PKIX)",
		RunE: func(cmd *cobra.Command, args []string) error {
			kid, err := generateKeys(outDir, force)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kid=%s\nsk=%s\npk=%s\n",
				kid, filepath.Join(outDir, "sk.pem"), filepath.Join(outDir, "pk.pem"))
			return nil
		},
	}
	genCmd.Flags().StringVar(&outDir, "out-dir", "keys", "directorio destino")
	genCmd.Flags().BoolVar(&force, "force", false, "pisar claves existentes")

	keysCmd.AddCommand(genCmd)
	return keysCmd
}

// generateKeys escribe sk.pem (0600) y pk.pem (0644). Devuelve el kid.
func generateKeys(dir string, force bool) (string, error) {
	sk, pk, err := jwt.GenerateKeyPairPEM()
	if err != nil {
		return "", err
	}
	pub, err := jwt.LoadVerificationKey(pk)
	if err != nil {
		return "", err
	}

	write := atomicwrite.WriteNew
	if force {
		write = atomicwrite.WriteFile
	}
	skPath := filepath.Join(dir, "sk.pem")
	pkPath := filepath.Join(dir, "pk.pem")
	if err := write(skPath, []byte(sk), 0o600); err != nil {
		if errors.Is(err, atomicwrite.ErrExists) {
			return "", fmt.Errorf("%w (usar --force para reemplazar)", err)
		}
		return "", err
	}
	// pk siempre se pisa: tiene que corresponder a la sk recién escrita
	if err := atomicwrite.WriteFile(pkPath, []byte(pk), 0o644); err != nil {
		return "", err
	}
	return jwt.KeyID(pub), nil
}
