package main

import (
	"testing"
)

func TestParseEnvironmentUpdate(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantID   string
		wantName string
		wantErr  bool
	}{
		{"flags after positional", []string{"e1", "--name", "staging"}, "e1", "staging", false},
		{"equals form", []string{"e1", "--name=staging"}, "e1", "staging", false},
		{"missing id", []string{"--name", "staging"}, "", "", true},
		{"missing name", []string{"e1"}, "", "", true},
		{"no args", nil, "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, name, err := parseEnvironmentUpdate(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if id != tt.wantID || name != tt.wantName {
				t.Errorf("got (%q, %q), want (%q, %q)", id, name, tt.wantID, tt.wantName)
			}
		})
	}
}

func TestParseRepoConfigArgs(t *testing.T) {
	tests := []struct {
		name    string
		sub     string
		args    []string
		want    repoConfigArgs
		wantErr bool
	}{
		{
			"add",
			"add",
			[]string{"--env", "e1", "--repo", "org/app", "--branch", "main"},
			repoConfigArgs{envID: "e1", repo: "org/app", branch: "main"},
			false,
		},
		{
			"update flags after positional",
			"update",
			[]string{"cfg-1", "--env", "e1", "--branch", "release"},
			repoConfigArgs{configID: "cfg-1", envID: "e1", branch: "release"},
			false,
		},
		{
			"remove",
			"remove",
			[]string{"cfg-1", "--env", "e1"},
			repoConfigArgs{configID: "cfg-1", envID: "e1"},
			false,
		},
		{"update missing positional", "update", []string{"--env", "e1"}, repoConfigArgs{}, true},
		{"remove missing env", "remove", []string{"cfg-1"}, repoConfigArgs{}, true},
		{"add missing repo", "add", []string{"--env", "e1", "--branch", "main"}, repoConfigArgs{}, true},
		{"unknown subcommand", "rename", []string{"cfg-1"}, repoConfigArgs{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRepoConfigArgs(tt.sub, tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWipe(t *testing.T) {
	secret := []byte("hunter2")
	wipe(secret)
	for i, b := range secret {
		if b != 0 {
			t.Fatalf("byte %d not cleared", i)
		}
	}
}
