package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// how to interpret results, and key thresholds.

func describeAnalyzeRepository() string {
	return `Computes structural quality metrics for every source file under the given paths and links classes across files.

USE WHEN:
- Getting a quality overview of an unfamiliar Java codebase
- Checking a repository against configured thresholds before a release
- Finding the most complex and least cohesive classes
- Estimating how much of the code is exercised by assertions

INTERPRETING RESULTS:
- WMC (weighted methods per class) > 50: class does too much, consider splitting
- LCOM4 > 1: methods form disconnected groups, the class has several responsibilities
- DIT > 4: deep inheritance, behavior is hard to trace
- Comment density below 10% suggests undocumented code
- PMNT (percentage of methods not tested) near 100% means asserts rarely name production methods
- Inheritance cycles indicate broken or ambiguous parent resolution
- violations lists every configured threshold that was exceeded

METRICS RETURNED:
- Per-class: WMC, complexity, LCOM4, DIT, NOC, NOM, NOF, parents, children
- Summary: files, classes, methods, asserts, line counts, comment density,
  WMC and LCOM distributions, most complex and least cohesive class
- History: commits, authors, first and last commit (when inside a git repository)`
}

func describeAnalyzeFile() string {
	return `Parses a single source file into its block structure and reports per-file and per-method metrics.

USE WHEN:
- Inspecting one file in detail after a repository scan flagged it
- Checking the effect of a refactoring on complexity
- Listing the classes, methods and fields a file declares

INTERPRETING RESULTS:
- complexity is 1 plus the decision points found in the file
- A method complexity above 10 usually warrants splitting the method
- Parents that could not be matched to an import or the package stay unqualified
- lines splits the file into code, comment and blank lines that sum to the total

METRICS RETURNED:
- Package, imports and assert statements
- Per-class: kind, visibility, parents, fields, WMC, methods
- Per-method: complexity, statement count, test flag, field references, calls`
}

func describeListClasses() string {
	return `Lists classes ranked by a chosen object-oriented metric.

USE WHEN:
- Prioritizing refactoring targets
- Finding god classes (high WMC) or classes with split responsibilities (high LCOM)
- Locating the deepest points of an inheritance hierarchy

INTERPRETING RESULTS:
- Sorted descending by the chosen metric (lcom, wmc, dit) or by name
- Classes at the top of the lcom ranking are the best candidates for extraction
- total is the number of classes before the top-N cut

METRICS RETURNED:
- Per-class: name, kind, visibility, path, WMC, complexity, LCOM4, DIT, NOC, NOM, NOF`
}
