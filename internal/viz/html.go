package viz

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/gwngames/scholargraph/internal/graph"
)

// compiledTemplate is parsed at init time to fail fast on template errors.
var (
	compiledTemplate = template.Must(template.New("viz").Parse(htmlTemplate))
	emptyTemplate    = template.Must(template.New("empty").Parse(emptyHTMLTemplate))
)

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Title        string
	AvatarURL    string // Fallback image for authors without a photo
	EmptyMessage string // Shown when there is nothing to draw
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{
		Title:        "Co-authorship Graph",
		EmptyMessage: "No graph data. Expand an author with sgraph expand <author-id>.",
	}
}

// NoResultsMessage is shown when filters remove everything.
const NoResultsMessage = "No result found for selected filters."

// GenerateHTML generates a self-contained HTML page for the graph.
func GenerateHTML(g *GraphData, opts HTMLOptions) (string, error) {
	if g == nil {
		return "", fmt.Errorf("graph cannot be nil")
	}
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}

	if g.IsEmpty() {
		return generateEmptyHTML(opts)
	}

	graphJSON, err := g.ToCytoscapeJSON()
	if err != nil {
		return "", err
	}

	data := templateData{
		Title:     opts.Title,
		GraphJSON: template.JS(graphJSON),
		Avatar:    opts.AvatarURL,
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// templateData holds data for the HTML template.
type templateData struct {
	Title     string
	GraphJSON template.JS
	Avatar    string
}

func generateEmptyHTML(opts HTMLOptions) (string, error) {
	msg := opts.EmptyMessage
	if msg == "" {
		msg = DefaultOptions().EmptyMessage
	}
	var buf bytes.Buffer
	if err := emptyTemplate.Execute(&buf, struct{ Title, Message string }{opts.Title, msg}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// HTMLRenderer writes the current view to an HTML file on every render.
type HTMLRenderer struct {
	Path    string
	Options HTMLOptions

	// Last holds the most recently rendered data, for callers that also
	// want to print it.
	Last *GraphData
}

// NewHTMLRenderer creates a renderer writing to path.
func NewHTMLRenderer(path string, opts HTMLOptions) *HTMLRenderer {
	return &HTMLRenderer{Path: path, Options: opts}
}

// Render builds the view and writes the page. A view emptied by filters
// writes the no-results page; an empty store keeps the empty-graph message.
func (r *HTMLRenderer) Render(v *graph.View, opts graph.ViewOptions) error {
	g := Build(v, OptionsFromView(opts))
	r.Last = g

	htmlOpts := r.Options
	if g.IsEmpty() && v != nil && v.NoResults {
		htmlOpts.EmptyMessage = NoResultsMessage
	}
	return r.write(g, htmlOpts)
}

// Clear writes the empty page.
func (r *HTMLRenderer) Clear() error {
	g := &GraphData{Nodes: []Node{}, Edges: []Edge{}}
	r.Last = g
	return r.write(g, r.Options)
}

func (r *HTMLRenderer) write(g *GraphData, opts HTMLOptions) error {
	page, err := GenerateHTML(g, opts)
	if err != nil {
		return fmt.Errorf("generating HTML: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.Path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(r.Path, []byte(page), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", r.Path, err)
	}
	return nil
}

const emptyHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}} - Empty</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      justify-content: center;
      align-items: center;
      height: 100vh;
      margin: 0;
      background: #f5f5f5;
    }
    .empty-state {
      text-align: center;
      color: #666;
    }
    .empty-state h2 {
      margin-bottom: 0.5em;
      color: #333;
    }
  </style>
</head>
<body>
  <div class="empty-state">
    <h2>Nothing to show</h2>
    <p>{{.Message}}</p>
  </div>
</body>
</html>`

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <script src="https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"></script>
  <style>
    * {
      box-sizing: border-box;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      padding: 0;
      background: #f5f5f5;
    }
    #cy {
      width: 100%;
      height: 100vh;
      background: white;
    }
    #tooltip {
      position: absolute;
      display: none;
      background: white;
      border: 1px solid #ccc;
      border-radius: 4px;
      padding: 8px 12px;
      box-shadow: 0 2px 8px rgba(0,0,0,0.15);
      max-width: 300px;
      font-size: 13px;
      z-index: 1000;
      pointer-events: none;
    }
    #tooltip .label {
      font-weight: bold;
      margin-bottom: 4px;
    }
    #tooltip .detail {
      color: #555;
      margin: 2px 0;
    }
  </style>
</head>
<body>
  <div id="cy"></div>
  <div id="tooltip"></div>
  <script>
    (function() {
      const graphData = {{.GraphJSON}};
      const avatar = "{{.Avatar}}";

      const cy = cytoscape({
        container: document.getElementById('cy'),
        elements: graphData,
        style: [
          {
            selector: 'node',
            style: {
              'background-color': 'white',
              'background-image': function(n) { return n.data('image') || avatar || 'none'; },
              'background-fit': 'cover',
              'border-color': '#000',
              'border-width': 1.5,
              'label': 'data(label)',
              'color': '#333',
              'font-size': function(n) { return n.data('isRoot') ? '12px' : '8px'; },
              'text-valign': 'bottom',
              'text-margin-y': '5px',
              'width': function(n) { return 2 * n.data('radius'); },
              'height': function(n) { return 2 * n.data('radius'); }
            }
          },
          {
            selector: 'edge',
            style: {
              'line-color': 'data(color)',
              'width': 'data(width)',
              'curve-style': 'haystack'
            }
          },
          {
            selector: 'node.highlighted',
            style: {
              'border-width': 3,
              'border-color': '#ff6b6b'
            }
          },
          {
            selector: '.dimmed',
            style: {
              'opacity': 0.25
            }
          }
        ],
        layout: {
          name: 'cose',
          animate: false,
          nodeRepulsion: function() { return 1000000; },
          idealEdgeLength: function(e) { return e.data('distance'); },
          edgeElasticity: function(e) { return 100 * e.data('strength'); },
          nodeOverlap: 24
        }
      });

      const tooltip = document.getElementById('tooltip');

      function escapeHtml(str) {
        if (str === undefined || str === null) return '';
        return String(str).replace(/&/g, '&amp;')
                  .replace(/</g, '&lt;')
                  .replace(/>/g, '&gt;')
                  .replace(/"/g, '&quot;');
      }

      function showTooltip(evt, content) {
        tooltip.innerHTML = content;
        tooltip.style.display = 'block';
        const pos = evt.renderedPosition || evt.position;
        tooltip.style.left = (pos.x + 15) + 'px';
        tooltip.style.top = (pos.y + 15) + 'px';
      }

      function hideTooltip() {
        tooltip.style.display = 'none';
      }

      cy.on('mouseover', 'node', function(evt) {
        const d = evt.target.data();
        let html = '<div class="label">' + escapeHtml(d.label) + '</div>';
        html += '<div class="detail">ID: ' + escapeHtml(d.id) + '</div>';
        if (d.confRank) html += '<div class="detail">Conference rank: ' + escapeHtml(d.confRank) + '</div>';
        if (d.journalRank) html += '<div class="detail">Journal rank: ' + escapeHtml(d.journalRank) + '</div>';
        showTooltip(evt, html);
      });

      cy.on('mouseover', 'edge', function(evt) {
        const d = evt.target.data();
        let html = '<div class="label">' + escapeHtml(d.tier) + '</div>';
        html += '<div class="detail">Publications: ' + escapeHtml(d.pubCount) + '</div>';
        showTooltip(evt, html);
      });

      cy.on('mouseout', 'node, edge', hideTooltip);

      cy.on('tap', 'node', function(evt) {
        const neighborhood = evt.target.closedNeighborhood();
        cy.elements().removeClass('highlighted dimmed');
        neighborhood.nodes().addClass('highlighted');
        cy.elements().not(neighborhood).addClass('dimmed');
      });

      cy.on('tap', function(evt) {
        if (evt.target === cy) {
          cy.elements().removeClass('highlighted dimmed');
        }
      });
    })();
  </script>
</body>
</html>`
