package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spacex-maker/qts-backend-web-sub004/pkg/httpclient"
	"github.com/spacex-maker/qts-backend-web-sub004/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	queryParams []string
	headerArgs  []string
	dataArg     string
	saveAs      string
	runVars     []string
)

func init() {
	for _, method := range []string{"GET", "POST", "PUT", "DELETE"} {
		cmd := newMethodCmd(method)
		cmd.Flags().StringArrayVarP(&queryParams, "query", "q", nil, "query parameter as key=value (repeatable)")
		cmd.Flags().StringArrayVarP(&headerArgs, "header", "H", nil, "extra header as Name: value (repeatable)")
		cmd.Flags().StringVar(&saveAs, "save", "", "also save the request under this name")
		if method == "POST" || method == "PUT" {
			cmd.Flags().StringVarP(&dataArg, "data", "d", "", "JSON body, or @file to read it from a file")
		}
		rootCmd.AddCommand(cmd)
	}

	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "variable for {{NAME}} placeholders as key=value (repeatable)")
	rootCmd.AddCommand(runCmd, requestsCmd)
}

func newMethodCmd(method string) *cobra.Command {
	return &cobra.Command{
		Use:   strings.ToLower(method) + " <path>",
		Short: fmt.Sprintf("Send a %s request to the active backend", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := parsePairs(queryParams, "=")
			if err != nil {
				return fmt.Errorf("invalid --query: %w", err)
			}
			headers, err := parsePairs(headerArgs, ":")
			if err != nil {
				return fmt.Errorf("invalid --header: %w", err)
			}
			body, err := readBody(dataArg)
			if err != nil {
				return err
			}

			if saveAs != "" {
				if err := saveRequest(method, args[0], headers, query, body); err != nil {
					return err
				}
			}

			req := httpclient.Request{
				Method:  method,
				Path:    args[0],
				Query:   toValues(query),
				Headers: headers,
			}
			if body != nil {
				req.Body = body
			}

			data, err := cli.client.Send(cmd.Context(), req)
			if err != nil {
				return err
			}
			cli.printData(data)
			return nil
		},
	}
}

var runCmd = &cobra.Command{
	Use:   "run <name>",
	Short: "Send a saved request from the requests directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		saved, err := storage.LoadNamedRequest(cli.cfg.StateDir, args[0])
		if err != nil {
			return err
		}

		vars, err := parsePairs(runVars, "=")
		if err != nil {
			return fmt.Errorf("invalid --var: %w", err)
		}
		saved = storage.ApplyVariables(saved, vars)

		req := httpclient.Request{
			Method:  saved.Method,
			Path:    saved.Path,
			Query:   toValues(saved.Query),
			Headers: saved.Headers,
		}
		if saved.Body != nil {
			req.Body = savedBody(saved.Body)
		}

		data, err := cli.client.Send(cmd.Context(), req)
		if err != nil {
			return err
		}
		cli.printData(data)
		return nil
	},
}

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List saved requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := storage.ListRequests(cli.cfg.StateDir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Fprintf(cli.out, "No saved requests in %s\n", storage.GetRequestsDir(cli.cfg.StateDir))
			return nil
		}

		sort.Strings(files)
		for _, f := range files {
			path := filepath.Join(storage.GetRequestsDir(cli.cfg.StateDir), f)
			req, err := storage.LoadRequest(path)
			if err != nil {
				fmt.Fprintf(cli.out, "  %-30s (unreadable: %v)\n", f, err)
				continue
			}
			fmt.Fprintf(cli.out, "  %-30s %-6s %s\n", strings.TrimSuffix(strings.TrimSuffix(f, ".yaml"), ".yml"), req.Method, req.Path)
		}
		return nil
	},
}

// parsePairs splits "key<sep>value" arguments.
func parsePairs(args []string, sep string) (map[string]string, error) {
	pairs := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, sep)
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key%svalue, got %q", sep, arg)
		}
		pairs[key] = strings.TrimSpace(value)
	}
	return pairs, nil
}

func toValues(m map[string]string) url.Values {
	if len(m) == 0 {
		return nil
	}
	values := make(url.Values, len(m))
	for k, v := range m {
		values.Set(k, v)
	}
	return values
}

// readBody returns the --data argument as raw JSON. "@file" reads the file.
func readBody(arg string) (json.RawMessage, error) {
	if arg == "" {
		return nil, nil
	}

	raw := []byte(arg)
	if strings.HasPrefix(arg, "@") {
		content, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
		if err != nil {
			return nil, fmt.Errorf("failed to read body file: %w", err)
		}
		raw = content
	}

	if !json.Valid(raw) {
		return nil, fmt.Errorf("request body is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

// savedBody sends string bodies holding JSON verbatim; anything else is
// marshalled by the client.
func savedBody(body interface{}) interface{} {
	if s, ok := body.(string); ok && json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	return body
}

func saveRequest(method, path string, headers, query map[string]string, body json.RawMessage) error {
	req := storage.Request{
		Name:    saveAs,
		Method:  method,
		Path:    path,
		Headers: headers,
		Query:   query,
	}
	if body != nil {
		req.Body = string(body)
	}

	filename := strings.ToLower(strings.ReplaceAll(saveAs, " ", "-"))
	target, err := storage.ValidatePathWithinDir(filename+".yaml", storage.GetRequestsDir(cli.cfg.StateDir))
	if err != nil {
		return err
	}
	if err := storage.SaveRequest(req, target); err != nil {
		return err
	}
	fmt.Fprintf(cli.errOut, "Saved request to %s\n", target)
	return nil
}
