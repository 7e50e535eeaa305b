package usecase

import "fmt"

// Default prompt set for the reasoning services. The output field names in
// these prompts are part of the external JSON contract and must match the
// InterpretedRecord struct tags exactly.

const analysisSystemPrompt = `Tu es un assistant spécialisé dans l'analyse de documents administratifs.
Analyse le texte fourni et réponds UNIQUEMENT avec un objet JSON valide contenant :
{
  "category": "une catégorie parmi : Facture, Impôts, Santé, Banque, Contrat, Assurance, Travail, Courrier, Other",
  "summary": "résumé en 15 mots maximum",
  "date": "date principale du document au format YYYY-MM-DD ou null",
  "amount": "montant principal en chiffres avec devise ou null",
  "issuer": "organisme ou entreprise émettrice ou null"
}
Ne réponds rien d'autre que le JSON.`

const visionPrompt = `Tu es un assistant spécialisé dans l'analyse visuelle de documents administratifs photographiés.
Lis attentivement ce document, y compris cases cochées, tampons et mentions manuscrites,
et réponds UNIQUEMENT avec un objet JSON strictement valide contenant :
{
  "category": "une catégorie parmi : Facture, Impôts, Santé, Banque, Contrat, Assurance, Travail, Courrier, Other",
  "summary": "résumé en 15 mots maximum",
  "date": "date principale visible au format YYYY-MM-DD ou null",
  "amount": "montant principal en chiffres avec devise ou null",
  "issuer": "organisme émetteur ou null",
  "ocr_text": "le texte complet que tu lis dans l'image, fidèlement retranscrit"
}
Ne pas inventer de texte illisible. Ne rien ajouter en dehors du JSON.`

const correctionSystemPromptFmt = `Tu es un expert en correction de texte OCR pour des documents administratifs français.
Le texte suivant a été extrait par OCR et peut contenir des erreurs typiques :
- Lettres confondues (l/1/I, 0/O, rn/m, etc.)
- Espaces manquants ou en trop
- Ponctuation incorrecte
- Mots coupés

Corrige ces erreurs en te basant sur le contexte (document administratif français).
Retourne UNIQUEMENT le texte corrigé, sans commentaires ni explications.
Conserve la structure et la mise en page originale autant que possible.
Score de confiance OCR fourni : %.0f%% — plus il est bas, plus la correction est importante.`

const fusionPromptFmt = `Tu es un expert en consolidation factuelle de documents administratifs français.

Tu disposes de trois sources :
1. L'image originale du document (référence principale)
2. Une analyse préliminaire par vision
3. Un texte OCR imparfait

Produis une version textuelle factuellement correcte du document en consolidant les trois sources.
Priorité absolue à l'exactitude des dates, montants, numéros (facture, contrat, IBAN, SIRET)
et noms d'organismes. Ne jamais inventer une information absente des trois sources.
Ne pas résumer, ne pas reformuler inutilement, ne pas ajouter de contenu explicatif.

Score de confiance OCR : %.0f%%
Contexte vision : %s

Texte OCR :
%s

Retourne uniquement le texte final consolidé. Aucun commentaire. Aucune explication.`

func correctionSystemPrompt(confidence float64) string {
	return fmt.Sprintf(correctionSystemPromptFmt, confidence)
}

func fusionPrompt(confidence float64, visionContext, ocrText string) string {
	return fmt.Sprintf(fusionPromptFmt, confidence, visionContext, ocrText)
}
