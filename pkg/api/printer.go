package api

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// PrintObj returns a tabulated description of the configuration, shown at
// higher verbosity before a workflow runs.
func (c *Config) PrintObj() string {
	out, err := tabbedString(func(out io.Writer) error {
		fmt.Fprintf(out, "Image Tag:\t%s\n", c.Tag)
		fmt.Fprintf(out, "Project ID:\t%s\n", c.ProjectID)
		fmt.Fprintf(out, "Credentials Path:\t%s\n", c.CredentialsPath)
		fmt.Fprintf(out, "Workdir:\t%s\n", c.WorkingDir)
		fmt.Fprintf(out, "Dockerfile:\t%s\n", c.Dockerfile)
		fmt.Fprintf(out, "Dist Directory:\t%s\n", c.DistDir)
		fmt.Fprintf(out, "Backup Directory:\t%s\n", c.BackupDir)
		if len(c.IndexURL) > 0 {
			fmt.Fprintf(out, "Package Index:\t%s\n", c.IndexURL)
		}
		printEnv(out, c.Environment)
		if len(c.EnvironmentFile) > 0 {
			fmt.Fprintf(out, "Environment File:\t%s\n", c.EnvironmentFile)
		}
		fmt.Fprintf(out, "Scaffold Dockerfile:\t%s\n", printBool(c.Scaffold))
		fmt.Fprintf(out, "Allow Missing Credentials:\t%s\n", printBool(c.AllowMissingCredentials))
		fmt.Fprintf(out, "No Cache:\t%s\n", printBool(c.NoCache))
		fmt.Fprintf(out, "Quiet:\t%s\n", printBool(c.Quiet))
		if c.DockerConfig != nil {
			fmt.Fprintf(out, "Docker Endpoint:\t%s\n", c.DockerConfig.Endpoint)
		}
		return nil
	})
	if err != nil {
		fmt.Printf("ERROR: %v", err)
	}
	return out
}

func printEnv(out io.Writer, env EnvironmentList) {
	if len(env) == 0 {
		return
	}
	fmt.Fprintf(out, "Environment:\t%s\n", strings.Join(env.AsEnv(), ","))
}

func printBool(b bool) string {
	if b {
		return "\033[1menabled\033[0m"
	}
	return "disabled"
}

func tabbedString(f func(io.Writer) error) (string, error) {
	out := new(tabwriter.Writer)
	buf := &bytes.Buffer{}
	out.Init(buf, 0, 8, 1, '\t', 0)

	err := f(out)
	if err != nil {
		return "", err
	}

	out.Flush()
	return buf.String(), nil
}
