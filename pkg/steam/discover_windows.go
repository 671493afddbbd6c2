//go:build windows

package steam

import (
	"golang.org/x/sys/windows/registry"

	"acolyte.sh/internal/errx"
)

const steamUserKey = `SOFTWARE\Valve\Steam`

func findRoot(string) (string, error) {
	path, err := readSteamRegistryValue("SteamPath")
	if err != nil {
		return "", errx.Wrap(ErrNoInstallation, err)
	}
	return path, nil
}

func findExe() (string, error) {
	exe, err := readSteamRegistryValue("SteamExe")
	if err != nil {
		return "", errx.Wrap(ErrNoInstallation, err)
	}
	return exe, nil
}

func readSteamRegistryValue(name string) (string, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, steamUserKey, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer key.Close()
	value, _, err := key.GetStringValue(name)
	return value, err
}
