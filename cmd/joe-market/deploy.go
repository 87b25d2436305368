package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/joestump/joe-market/internal/market"
	"github.com/joestump/joe-market/internal/marketplace"
)

func parseAccount(flag, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("--%s: %q is not a hex address", flag, value)
	}
	return common.HexToAddress(value), nil
}

func newDeployCmd() *cobra.Command {
	var from, version string
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy a marketplace behind an upgradeable proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, err := parseAccount("from", from)
			if err != nil {
				return err
			}
			e, closer, err := setup("deploy")
			if err != nil {
				return err
			}
			defer closer()

			d, err := market.DeployMarketplace(cmd.Context(), market.NewChain(e.db, e.log), sender, version)
			if err != nil {
				return err
			}
			e.log.Infof("marketplace %s deployed: proxy %s implementation %s", version, d.Proxy.Hex(), d.Implementation.Hex())
			cmd.Printf("proxy:          %s\n", d.Proxy.Hex())
			cmd.Printf("implementation: %s\n", d.Implementation.Hex())
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "account that deploys and owns the marketplace (required)")
	cmd.Flags().StringVar(&version, "version", marketplace.VersionV1, "marketplace implementation version")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}

func newUpgradeCmd() *cobra.Command {
	var from, proxyAddr, version string
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Deploy a new marketplace implementation and point a proxy at it",
		RunE: func(cmd *cobra.Command, args []string) error {
			sender, err := parseAccount("from", from)
			if err != nil {
				return err
			}
			px, err := parseAccount("proxy", proxyAddr)
			if err != nil {
				return err
			}
			e, closer, err := setup("upgrade")
			if err != nil {
				return err
			}
			defer closer()

			impl, err := market.UpgradeMarketplace(cmd.Context(), market.NewChain(e.db, e.log), sender, px, version)
			if err != nil {
				return err
			}
			e.log.Infof("proxy %s upgraded to %s at %s", px.Hex(), version, impl.Hex())
			cmd.Printf("implementation: %s\n", impl.Hex())
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "proxy owner (required)")
	cmd.Flags().StringVar(&proxyAddr, "proxy", "", "proxy address (required)")
	cmd.Flags().StringVar(&version, "version", marketplace.VersionV2, "marketplace implementation version")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("proxy")
	return cmd
}
