package main

import (
	"fmt"

	"github.com/Cyclone1070/termpilot/internal/config"
	"github.com/Cyclone1070/termpilot/internal/policy"
	"github.com/spf13/cobra"
)

// loadConfig loads the layered configuration and applies the command's flags on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := applyConfigFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyConfigFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("max-turns") {
		n, err := flags.GetInt("max-turns")
		if err != nil {
			return err
		}
		cfg.Orchestrator.MaxTurns = n
	}
	if flags.Changed("model") {
		model, err := flags.GetString("model")
		if err != nil {
			return err
		}
		cfg.Agent.Model = model
	}
	return cfg.Validate()
}

// newPolicyStore builds the policy store from cfg, then applies --mode,
// --allow and --deny through Store.Update.
func newPolicyStore(cmd *cobra.Command, cfg *config.Config) (*policy.Store, error) {
	mode, err := policy.ParseMode(cfg.Policy.Mode)
	if err != nil {
		return nil, err
	}
	store, err := policy.NewStore(policy.Settings{
		Mode:      mode,
		AllowList: cfg.Policy.AllowList,
		DenyList:  cfg.Policy.DenyList,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	if err := applyPolicyFlags(cmd, store); err != nil {
		return nil, err
	}
	return store, nil
}

func applyPolicyFlags(cmd *cobra.Command, store *policy.Store) error {
	flags := cmd.Flags()
	rawMode, _ := flags.GetString("mode")
	allow, _ := flags.GetStringSlice("allow")
	deny, _ := flags.GetStringSlice("deny")
	if rawMode == "" && len(allow) == 0 && len(deny) == 0 {
		return nil
	}

	var mode policy.Mode
	if rawMode != "" {
		m, err := policy.ParseMode(rawMode)
		if err != nil {
			return err
		}
		mode = m
	}

	return store.Update(func(s *policy.Settings) {
		if mode != "" {
			s.Mode = mode
		}
		s.AllowList = append(s.AllowList, allow...)
		s.DenyList = append(s.DenyList, deny...)
	})
}
